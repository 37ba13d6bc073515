package icm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshPayload is what browsers receive whenever the container changes.
type refreshPayload struct {
	Markup string    `json:"markup"`
	At     time.Time `json:"at"`
}

// clientManager fans container replacements out to every connected
// browser. New clients immediately receive the latest payload.
type clientManager struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	wake       chan struct{}
	done       chan struct{}

	mu     sync.Mutex
	latest *refreshPayload
}

type client struct {
	id     string
	notify chan refreshPayload
}

func newClientManager() *clientManager {
	return &clientManager{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (m *clientManager) start(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case c := <-m.register:
			m.clients[c] = struct{}{}
			if latest := m.getLatest(); latest != nil {
				deliver(c, *latest)
			}
		case c := <-m.unregister:
			delete(m.clients, c)
		case <-m.wake:
			latest := m.getLatest()
			if latest == nil {
				continue
			}
			for c := range m.clients {
				deliver(c, *latest)
			}
		case <-ctx.Done():
			return
		}
	}
}

// deliver replaces any undelivered payload; only the newest markup matters.
func deliver(c *client, p refreshPayload) {
	select {
	case <-c.notify:
	default:
	}
	select {
	case c.notify <- p:
	default:
	}
}

// publish never blocks, whether or not the manager is running.
func (m *clientManager) publish(p refreshPayload) {
	m.mu.Lock()
	m.latest = &p
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *clientManager) getLatest() *refreshPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// subscribe registers a client and returns a function that unregisters
// it. Both are no-ops once the manager has stopped.
func (m *clientManager) subscribe(id string) (*client, func()) {
	c := &client{id: id, notify: make(chan refreshPayload, 1)}
	select {
	case m.register <- c:
	case <-m.done:
	}
	return c, func() {
		select {
		case m.unregister <- c:
		case <-m.done:
		}
	}
}

func sseHandler(manager *clientManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		c, unsubscribe := manager.subscribe(r.RemoteAddr)
		defer unsubscribe()

		for {
			select {
			case p := <-c.notify:
				data, err := json.Marshal(p)
				if err != nil {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			case <-manager.done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
