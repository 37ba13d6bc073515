package icm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// DevServer runs the live pipeline against a directory and mirrors the
// container to connected browsers.
type DevServer struct {
	logger    Logger
	root      string
	fsys      fs.FS
	matcher   *moduleMatcher
	fetcher   *FileFetcher
	document  *Document
	resources *ResourceStore
	registry  *Registry
	live      *LiveBackend
	pipeline  *Pipeline
	manager   *clientManager
	watcher   *fsnotify.Watcher
	port      int
}

func (c *Config) NewDevServer() (*DevServer, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	strategy, err := c.EmbedStrategy()
	if err != nil {
		return nil, err
	}

	s := &DevServer{
		logger:    c.getLogger(),
		root:      c.getCleanRootDir(),
		document:  NewDocument(),
		resources: NewResourceStore(DefaultResourcePrefix),
		manager:   newClientManager(),
		port:      c.Dev.Port,
	}
	s.fsys = os.DirFS(s.root)
	s.matcher = newModuleMatcher(c.Include, c.Exclude, s.logger)
	s.fetcher = NewFileFetcher(s.fsys, nil)
	s.registry = NewRegistry(WithEvictHook(s.resources.EvictHook()))

	s.live, err = NewLiveBackend(s.registry, s.document, LiveOptions{
		Strategy:  strategy,
		Delay:     c.DebounceDelay(),
		Resources: s.resources,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.pipeline = NewPipeline(s.registry, s.live, WithDefaultFetch(s.fetcher.Fetch), WithLogger(s.logger))

	s.document.OnReplace(func(markup string) {
		s.manager.publish(refreshPayload{Markup: markup, At: time.Now()})
	})
	return s, nil
}

func (s *DevServer) Document() *Document       { return s.document }
func (s *DevServer) Pipeline() *Pipeline       { return s.pipeline }
func (s *DevServer) Live() *LiveBackend        { return s.live }
func (s *DevServer) Registry() *Registry       { return s.registry }
func (s *DevServer) Resources() *ResourceStore { return s.resources }

// LoadAll loads every module under the root and renders the container
// once, without waiting for the debounce.
func (s *DevServer) LoadAll(ctx context.Context) error {
	names, err := s.matcher.discover(s.fsys)
	if err != nil {
		return fmt.Errorf("error discovering CSS modules: %w", err)
	}
	records, err := prefetch(ctx, s.fetcher.Fetch, names)
	if err != nil {
		return err
	}
	if _, err := processInOrder(ctx, s.pipeline, records); err != nil {
		return err
	}
	s.logger.Infof("loaded %d CSS modules from %s", len(records), s.root)
	return s.live.Flush(ctx)
}

func (s *DevServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		sseHandler(s.manager)(w, r)
	})

	mux.HandleFunc("/ws", wsHandler(s.manager, s.logger))

	mux.HandleFunc("/client.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "text/javascript")
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		w.Write([]byte(GetClientScript(scheme + "://" + r.Host)))
	})

	mux.HandleFunc("/tokens", s.handleTokens)

	mux.Handle(s.resources.Prefix(), s.resources)

	return mux
}

func (s *DevServer) handleTokens(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	module := r.URL.Query().Get("module")
	if module == "" {
		http.Error(w, "missing module parameter", http.StatusBadRequest)
		return
	}
	module = path.Clean(module)
	if !s.matcher.isModule(module) {
		http.Error(w, "not a CSS module: "+module, http.StatusNotFound)
		return
	}

	tokens, err := s.pipeline.Process(r.Context(), Load{Name: module}, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokens)
}

// Run loads every module, starts the watcher and serves until ctx is
// done.
func (s *DevServer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.manager.start(ctx)
		return nil
	})

	port, err := getFreePort(s.port, s.logger)
	if err != nil {
		return fmt.Errorf("error getting free port: %w", err)
	}
	s.port = port
	setPort(port)
	// links are rendered into pages from other origins
	s.resources.SetBaseURL(fmt.Sprintf("http://localhost:%d", port))

	if err := s.LoadAll(ctx); err != nil {
		// keep serving; fixing the file triggers a reload
		s.logger.Errorf("error loading CSS modules: %v", err)
	}

	if err := s.setupWatcher(); err != nil {
		return err
	}
	g.Go(func() error {
		s.handleWatcherEmissions(ctx)
		return nil
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.Handler()}
	g.Go(func() error {
		s.logger.Infof("dev server listening on http://localhost:%d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	s.Close()
	return err
}

func (s *DevServer) Port() int { return s.port }

// Close stops the watcher and releases every resource handle.
func (s *DevServer) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.live.Close()
}

// StartDev runs a DevServer until ctx is done.
func (c *Config) StartDev(ctx context.Context) error {
	setModeToDev()
	s, err := c.NewDevServer()
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
