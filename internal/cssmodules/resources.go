package icm

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const DefaultResourcePrefix = "/__cssmodules/res/"

// ResourceStore keeps CSS text addressable under transient URLs, the way
// a browser keeps blobs behind object URLs. Handles are absolute once a
// base URL is set, so pages served from another origin can load them.
type ResourceStore struct {
	mu        sync.RWMutex
	prefix    string
	baseURL   string
	resources map[string]string // path -> css
	newID     func() (uuid.UUID, error)
}

func NewResourceStore(prefix string) *ResourceStore {
	if prefix == "" {
		prefix = DefaultResourcePrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ResourceStore{
		prefix:    prefix,
		resources: make(map[string]string),
		newID:     uuid.NewRandom,
	}
}

func (s *ResourceStore) Prefix() string { return s.prefix }

// SetBaseURL makes handles created from now on absolute, e.g.
// "http://localhost:10000". Existing handles stay valid.
func (s *ResourceStore) SetBaseURL(base string) {
	s.mu.Lock()
	s.baseURL = strings.TrimSuffix(base, "/")
	s.mu.Unlock()
}

// Create stores css and returns its handle URL.
func (s *ResourceStore) Create(name, css string) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("error creating resource id for %s: %w", name, err)
	}
	path := s.prefix + id.String() + ".css"

	s.mu.Lock()
	s.resources[path] = css
	handle := s.baseURL + path
	s.mu.Unlock()
	return handle, nil
}

func (s *ResourceStore) Release(handle string) {
	s.mu.Lock()
	delete(s.resources, s.pathOf(handle))
	s.mu.Unlock()
}

// Lookup accepts a handle or the request path it is served under.
func (s *ResourceStore) Lookup(handle string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	css, ok := s.resources[s.pathOf(handle)]
	return css, ok
}

func (s *ResourceStore) pathOf(handle string) string {
	if i := strings.Index(handle, s.prefix); i > 0 {
		return handle[i:]
	}
	return handle
}

func (s *ResourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

func (s *ResourceStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	css, ok := s.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(css))
}

// EvictHook releases handles evicted from a Registry.
func (s *ResourceStore) EvictHook() EvictFunc {
	return func(_, handle string) { s.Release(handle) }
}
