package icm

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// dev server only; pages are served from other origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler streams the same payloads as the SSE endpoint, for hosts
// without EventSource.
func wsHandler(manager *clientManager, logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Errorf("error upgrading websocket: %v", err)
			return
		}
		defer conn.Close()

		c, unsubscribe := manager.subscribe(r.RemoteAddr)
		defer unsubscribe()

		// Reads only serve to notice the peer going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case p := <-c.notify:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(p); err != nil {
					logger.Debugf("websocket client %s gone: %v", c.id, err)
					return
				}
			case <-closed:
				return
			case <-manager.done:
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
