package icm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watcherBatchDelay = 30 * time.Millisecond

var ignoredDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
}

func (s *DevServer) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	s.watcher = watcher

	if err := s.addDirs(s.root); err != nil {
		return fmt.Errorf("error adding directories to watcher: %w", err)
	}
	return nil
}

func (s *DevServer) addDirs(path string) error {
	return filepath.Walk(path, func(walkedPath string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		if !info.IsDir() {
			return nil
		}
		if walkedPath != path && ignoredDirNames[info.Name()] {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(walkedPath); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
		return nil
	})
}

func (s *DevServer) handleWatcherEmissions(ctx context.Context) {
	batcher := newEventBatcher(watcherBatchDelay, func(events []fsnotify.Event) {
		s.processBatchedEvents(ctx, events)
	})

	for {
		select {
		case evt, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			batcher.add(evt)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf("watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// processBatchedEvents reloads changed modules and drops deleted ones.
// Only the last event per file counts.
func (s *DevServer) processBatchedEvents(ctx context.Context, events []fsnotify.Event) {
	fileChanges := make(map[string]fsnotify.Event, len(events))
	var order []string
	for _, evt := range events {
		if _, seen := fileChanges[evt.Name]; !seen {
			order = append(order, evt.Name)
		}
		fileChanges[evt.Name] = evt
	}

	for _, name := range order {
		evt := fileChanges[name]

		fileInfo, _ := os.Stat(evt.Name) // missing files are handled below
		if fileInfo != nil && fileInfo.IsDir() {
			if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				if err := s.addDirs(evt.Name); err != nil {
					s.logger.Errorf("error adding directory to watcher: %v", err)
				}
			}
			continue
		}

		module, ok := s.moduleName(evt.Name)
		if !ok {
			continue
		}

		switch {
		case fileInfo == nil && (evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)):
			if s.registry.Remove(module) {
				s.logger.Infof("removed %s", module)
				s.live.Schedule()
			}
		case evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename):
			if _, err := s.pipeline.Process(ctx, Load{Name: module}, nil); err != nil {
				s.logger.Errorf("error reloading %s: %v", module, err)
				continue
			}
			s.logger.Infof("reloaded %s", module)
		}
	}
}

// moduleName maps an absolute or root-relative event path to a module
// name, reporting whether it names a CSS module.
func (s *DevServer) moduleName(eventPath string) (string, bool) {
	rel, err := filepath.Rel(s.root, eventPath)
	if err != nil {
		return "", false
	}
	name := filepath.ToSlash(rel)
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, s.matcher.isModule(name)
}
