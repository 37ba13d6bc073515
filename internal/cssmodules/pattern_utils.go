package icm

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sjc5/kit/pkg/typed"
)

// moduleMatcher decides which slash-separated paths (relative to the
// root) are CSS modules.
type moduleMatcher struct {
	include []string
	exclude []string
	logger  Logger
	results typed.SyncMap[matchKey, bool]
}

type matchKey struct{ pattern, path string }

func newModuleMatcher(include, exclude []string, logger Logger) *moduleMatcher {
	return &moduleMatcher{include: include, exclude: exclude, logger: logger}
}

// matches reports whether path matches the glob pattern. Results are
// memoized; a malformed pattern never matches.
func (m *moduleMatcher) matches(pattern, path string) bool {
	key := matchKey{pattern, path}
	if ok, cached := m.results.Load(key); cached {
		return ok
	}

	ok, err := doublestar.Match(pattern, filepath.ToSlash(path))
	if err != nil {
		m.logger.Errorf("bad module pattern %q: %v", pattern, err)
	}
	m.results.Store(key, ok)
	return ok
}

func (m *moduleMatcher) anyMatch(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if m.matches(pattern, path) {
			return true
		}
	}
	return false
}

func (m *moduleMatcher) isModule(path string) bool {
	return m.anyMatch(m.include, path) && !m.anyMatch(m.exclude, path)
}

// discover lists every module in fsys, sorted by name.
func (m *moduleMatcher) discover(fsys fs.FS) ([]string, error) {
	seen := map[string]struct{}{}
	var names []string
	for _, pattern := range m.include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("error globbing %s: %w", pattern, err)
		}
		for _, name := range matches {
			if _, ok := seen[name]; ok || m.anyMatch(m.exclude, name) {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
