package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/perf"
)

const (
	clientBuffer = 64
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// eventSource is the slice of the app the WebSocket needs.
type eventSource interface {
	Subscribe(buffer int) (<-chan app.Update, func())
	NewRenderSource() *perf.Source
	SetOverlayOpen(open bool)
	Performance() perf.Status
}

// clientMessage is sent by the renderer. Render messages report a drawn
// frame at t milliseconds on the client's own clock; overlay messages
// report the blocking overlay.
type clientMessage struct {
	Type string  `json:"type"`
	T    float64 `json:"t"`
	Open *bool   `json:"open"`
}

// EventsHandler pushes interaction events and performance changes to
// WebSocket clients and reads their render ticks and overlay state.
type EventsHandler struct {
	source  eventSource
	logger  *slog.Logger
	clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

// NewEventsHandler creates an EventsHandler for source.
func NewEventsHandler(source eventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		source:  source,
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	render := h.source.NewRenderSource()
	defer render.Close()

	updates, cancel := h.source.Subscribe(clientBuffer)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go h.writeLoop(conn, updates, done)

	h.readLoop(conn, render)
}

// writeLoop is the connection's only data writer.
func (h *EventsHandler) writeLoop(conn *websocket.Conn, updates <-chan app.Update, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	status := h.source.Performance()
	if err := h.write(conn, app.Update{Type: app.UpdatePerformance, Performance: &status}); err != nil {
		conn.Close()
		return
	}

	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, u); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				conn.Close()
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, u app.Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}

func (h *EventsHandler) readLoop(conn *websocket.Conn, render *perf.Source) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed client message", "error", err)
			continue
		}

		switch msg.Type {
		case "render":
			render.RecordFrame(renderTime(msg.T))
		case "overlay":
			if msg.Open != nil {
				h.source.SetOverlayOpen(*msg.Open)
			}
		default:
			h.logger.Debug("ignoring client message", "type", msg.Type)
		}
	}
}

// renderTime converts a client clock reading in milliseconds. Only
// differences between readings matter.
func renderTime(ms float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms * float64(time.Millisecond)))
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every client.
func (h *EventsHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
	}
}
