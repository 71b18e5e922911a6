package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nyralabs/nira/internal/logging"
)

// Event is one message on the admin dashboard stream.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHub fans operational events out to connected dashboard clients.
type EventHub struct {
	upgrader websocket.Upgrader

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan Event
	done       chan struct{}

	closeOnce sync.Once
}

// NewEventHub creates the hub. Run must be called before events flow.
func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. All membership changes and broadcasts go
// through this loop, so no lock is needed around the map.
func (h *EventHub) Run() {
	clients := make(map[*websocket.Conn]bool)

	for {
		select {
		case conn := <-h.register:
			clients[conn] = true

		case conn := <-h.unregister:
			if clients[conn] {
				delete(clients, conn)
				conn.Close()
			}

		case event := <-h.broadcast:
			for conn := range clients {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(event); err != nil {
					delete(clients, conn)
					conn.Close()
				}
			}

		case <-h.done:
			for conn := range clients {
				conn.Close()
			}
			return
		}
	}
}

// Close shuts the hub down and disconnects all clients.
func (h *EventHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Publish queues an event for broadcast. It never blocks: when the
// buffer is full the event is dropped, the dashboard is best-effort.
func (h *EventHub) Publish(eventType string, data interface{}) {
	event := Event{Type: eventType, Data: data, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		logging.Debug("event hub buffer full, dropped %s event", eventType)
	}
}

// handleWebSocket upgrades a dashboard connection and parks a reader
// that only watches for the client going away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed: %v", err)
		return
	}

	s.hub.register <- conn

	go func() {
		defer func() { s.hub.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
