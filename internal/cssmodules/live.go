package icm

import (
	"context"
	"errors"
	"sync"
	"time"
)

const DefaultDebounceDelay = 500 * time.Millisecond

type LiveOptions struct {
	Strategy EmbedStrategy
	// Delay is the quiet period before a render. Defaults to
	// DefaultDebounceDelay.
	Delay time.Duration
	// Resources backs external embedding. Required for StrategyExternal.
	Resources *ResourceStore
	// OnRenderError receives errors from debounced renders. Defaults to
	// logging them.
	OnRenderError func(error)
	Logger        Logger
}

// LiveBackend keeps a Container holding every registered stylesheet in
// dependency order. Renders are debounced and always replace the whole
// container.
type LiveBackend struct {
	registry      *Registry
	container     Container
	strategy      EmbedStrategy
	resources     *ResourceStore
	onRenderError func(error)
	logger        Logger

	renderMu sync.Mutex
	debounce *debouncer
}

func NewLiveBackend(registry *Registry, container Container, opts LiveOptions) (*LiveBackend, error) {
	if opts.Strategy == StrategyExternal && opts.Resources == nil {
		return nil, errors.New("external embedding requires a resource store")
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDebounceDelay
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}

	l := &LiveBackend{
		registry:      registry,
		container:     container,
		strategy:      opts.Strategy,
		resources:     opts.Resources,
		onRenderError: opts.OnRenderError,
		logger:        opts.Logger,
	}
	if l.onRenderError == nil {
		l.onRenderError = func(err error) {
			l.logger.Errorf("error rendering CSS modules: %v", err)
		}
	}
	l.debounce = newDebouncer(opts.Delay, func() {
		if err := l.render(); err != nil {
			l.onRenderError(err)
		}
	})
	return l, nil
}

func (l *LiveBackend) Strategy() EmbedStrategy { return l.strategy }

// Prepare creates the resource handle for rec under external embedding.
func (l *LiveBackend) Prepare(_ context.Context, rec *StyleRecord) (string, error) {
	if l.strategy != StrategyExternal {
		return "", nil
	}
	handle, err := l.resources.Create(rec.Name, rec.InjectableSource)
	if err != nil {
		return "", &ResourceMaterializationError{Name: rec.Name, Err: err}
	}
	return handle, nil
}

func (l *LiveBackend) OnRecordReady(_ context.Context, _ *StyleRecord) error {
	l.Schedule()
	return nil
}

// Schedule requests a debounced render.
func (l *LiveBackend) Schedule() {
	l.debounce.trigger()
}

// Flush cancels any pending render and renders now.
func (l *LiveBackend) Flush(_ context.Context) error {
	l.debounce.cancel()
	return l.render()
}

// Close cancels any pending render and releases every resource handle.
func (l *LiveBackend) Close() {
	l.debounce.cancel()
	l.registry.Close()
}

func (l *LiveBackend) render() error {
	l.renderMu.Lock()
	defer l.renderMu.Unlock()

	entries, err := l.registry.sortedRecords()
	if err != nil {
		return err
	}
	markup, err := renderMarkup(entries, l.strategy)
	if err != nil {
		return err
	}
	if err := l.container.ReplaceContents(markup); err != nil {
		return err
	}
	l.logger.Debugf("rendered %d CSS modules (%s)", len(entries), l.strategy)
	return nil
}
