package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cyreio/cyre-go/pkg/sensor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteDeadline = 10 * time.Second
	wsPongWait      = 60 * time.Second
	wsPingInterval  = 54 * time.Second
)

// sensorWSHandler upgrades each request to a websocket connection and
// streams every sensor.Event emitted on bus to it as JSON, until the
// client disconnects. One bus subscription per connection; a slow
// reader drops events rather than blocking the broadcaster (sensor.Bus
// already enforces that on Emit).
type sensorWSHandler struct {
	bus    *sensor.Bus
	logger *slog.Logger
}

func newSensorWSHandler(bus *sensor.Bus, logger *slog.Logger) *sensorWSHandler {
	return &sensorWSHandler{bus: bus, logger: logger}
}

func (h *sensorWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	h.logger.Info("sensor stream client connected", "remote_addr", conn.RemoteAddr().String())

	events, unsubscribe := h.bus.Subscribe(128)
	defer unsubscribe()

	done := make(chan struct{})
	go h.readPump(conn, done)

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			conn.Close()
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case e, ok := <-events:
			if !ok {
				conn.Close()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("sensor stream write failed, closing", "error", err)
				conn.Close()
				return
			}
		}
	}
}

// readPump only exists to notice client-initiated close frames; the
// demo's sensor stream is one-directional.
func (h *sensorWSHandler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
