package icm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

const maxConcurrentFetches = 100

type BuildResult struct {
	// Loads lists the bundled modules in emission order.
	Loads []Load
	// Artifact is the injector script; empty when CSS was written
	// separately.
	Artifact string
	// OutFile is where the artifact was written, if anywhere.
	OutFile string
}

// Build bundles every CSS module under RootDir into one artifact. When
// Bundle.OutFile is set the artifact is written there.
func (c *Config) Build(ctx context.Context) (*BuildResult, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	logger := c.getLogger()

	cleanRootDir := c.getCleanRootDir()
	fsys := os.DirFS(cleanRootDir)

	names, err := newModuleMatcher(c.Include, c.Exclude, logger).discover(fsys)
	if err != nil {
		return nil, fmt.Errorf("error discovering CSS modules: %w", err)
	}
	logger.Infof("bundling %d CSS modules from %s", len(names), cleanRootDir)

	fetcher := NewFileFetcher(fsys, nil)
	result, err := buildBundle(ctx, fetcher.Fetch, names, c.Bundle, NewBundleBackend(nil, logger), logger)
	if err != nil {
		return nil, err
	}

	if result.Artifact != "" && c.Bundle.OutFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.Bundle.OutFile), 0755); err != nil {
			return nil, fmt.Errorf("error creating output directory: %w", err)
		}
		if err := os.WriteFile(c.Bundle.OutFile, []byte(result.Artifact), 0644); err != nil {
			return nil, fmt.Errorf("error writing bundle: %w", err)
		}
		result.OutFile = c.Bundle.OutFile
		logger.Infof("wrote bundle to %s", c.Bundle.OutFile)
	}
	return result, nil
}

// buildBundle fetches names concurrently, then feeds them through a
// pipeline in dependency order, the order a host's module graph traversal
// would load them in.
func buildBundle(
	ctx context.Context,
	fetch FetchFunc,
	names []string,
	opts BundleOptions,
	bundle *BundleBackend,
	logger Logger,
) (*BuildResult, error) {
	records, err := prefetch(ctx, fetch, names)
	if err != nil {
		return nil, err
	}

	pipeline := NewPipeline(NewRegistry(), bundle, WithLogger(logger))
	loads, err := processInOrder(ctx, pipeline, records)
	if err != nil {
		return nil, err
	}

	artifact, err := bundle.Finalize(ctx, loads, opts)
	if err != nil {
		return nil, fmt.Errorf("error finalizing bundle: %w", err)
	}
	return &BuildResult{Loads: loads, Artifact: artifact}, nil
}

// processInOrder feeds prefetched records through pipeline in dependency
// order and returns the loads it ran.
func processInOrder(ctx context.Context, pipeline *Pipeline, records []*StyleRecord) ([]Load, error) {
	order, err := SortDependencies(records)
	if err != nil {
		return nil, fmt.Errorf("error ordering CSS modules: %w", err)
	}

	byName := make(map[string]*StyleRecord, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	loads := make([]Load, 0, len(order))
	for _, name := range order {
		rec := byName[name]
		load := Load{Name: name}
		prefetched := func(context.Context, Load) (*StyleRecord, error) { return rec, nil }
		if _, err := pipeline.Process(ctx, load, prefetched); err != nil {
			return nil, err
		}
		loads = append(loads, load)
	}
	return loads, nil
}

// prefetch runs fetch for every name, at most maxConcurrentFetches at a
// time. Records come back in the order of names.
func prefetch(ctx context.Context, fetch FetchFunc, names []string) ([]*StyleRecord, error) {
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	records := make([]*StyleRecord, len(names))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errAll error
	)
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				errAll = multierr.Append(errAll, fmt.Errorf("error acquiring semaphore: %w", err))
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			rec, err := fetch(ctx, Load{Name: name})
			if err == nil && rec != nil {
				if rec.Name == "" {
					rec.Name = name
				}
				err = rec.normalize()
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errAll = multierr.Append(errAll, err)
				return
			}
			records[i] = rec
		}(i, name)
	}
	wg.Wait()

	if errAll != nil {
		return nil, errAll
	}
	out := records[:0]
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
