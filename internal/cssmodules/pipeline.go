package icm

import (
	"context"
	"fmt"
)

// Backend delivers published records. OnRecordReady must not block on
// follow-up work such as rendering; it only schedules it.
type Backend interface {
	OnRecordReady(ctx context.Context, rec *StyleRecord) error
}

// Preparer is implemented by backends that materialize a resource for a
// record before it is published. The returned handle is stored with the
// record; on error nothing is published.
type Preparer interface {
	Prepare(ctx context.Context, rec *StyleRecord) (handle string, err error)
}

// Finalizer is implemented by backends that produce a build artifact.
type Finalizer interface {
	Finalize(ctx context.Context, loads []Load, opts BundleOptions) (string, error)
}

// Pipeline runs module loads: fetch, publish to the registry, notify the
// backend, hand the tokens back.
type Pipeline struct {
	registry     *Registry
	backend      Backend
	defaultFetch FetchFunc
	logger       Logger
}

type PipelineOption func(*Pipeline)

func WithDefaultFetch(fetch FetchFunc) PipelineOption {
	return func(p *Pipeline) { p.defaultFetch = fetch }
}

func WithLogger(logger Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

func NewPipeline(registry *Registry, backend Backend, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{registry: registry, backend: backend, logger: NopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Registry() *Registry { return p.registry }
func (p *Pipeline) Backend() Backend    { return p.backend }

// Process loads one CSS module and returns its exported tokens. A failed
// fetch or preparation is returned as is and publishes nothing.
func (p *Pipeline) Process(ctx context.Context, load Load, fetch FetchFunc) (Tokens, error) {
	if fetch == nil {
		fetch = p.defaultFetch
	}
	if fetch == nil {
		return nil, fmt.Errorf("error loading %s: no fetch function configured", load.Name)
	}

	rec, err := fetch(ctx, load)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("error loading %s: fetch returned no record", load.Name)
	}
	if rec.Name == "" {
		rec.Name = load.Name
	}
	if err := rec.normalize(); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", load.Name, err)
	}

	var handle string
	if prep, ok := p.backend.(Preparer); ok {
		if handle, err = prep.Prepare(ctx, rec); err != nil {
			return nil, err
		}
	}

	p.registry.UpsertWithHandle(rec, handle)
	p.logger.Debugf("registered CSS module %s (%d deps, %d tokens)", rec.Name, len(rec.Dependencies), len(rec.ExportedTokens))

	if err := p.backend.OnRecordReady(ctx, rec); err != nil {
		return nil, err
	}

	return rec.ExportedTokens.clone(), nil
}
