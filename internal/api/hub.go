package api

import (
	"encoding/json"
	"log"
	"sync"
)

// propertyMessage is sent to every session on a property except the sender.
type propertyMessage struct {
	propertyID int64
	sender     *DesignerSession
	message    []byte
}

// WebSocketHub manages all active designer sessions
type WebSocketHub struct {
	sessions   map[*DesignerSession]bool
	broadcast  chan propertyMessage
	register   chan *DesignerSession
	unregister chan *DesignerSession
	done       chan struct{}
	mu         sync.RWMutex
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		sessions:   make(map[*DesignerSession]bool),
		broadcast:  make(chan propertyMessage, 256),
		register:   make(chan *DesignerSession),
		unregister: make(chan *DesignerSession),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			h.mu.Unlock()
			log.Printf("Designer session registered: session_id=%s", s.id)

		case s := <-h.unregister:
			h.mu.Lock()
			delete(h.sessions, s)
			s.closeSend()
			h.mu.Unlock()
			log.Printf("Designer session unregistered: session_id=%s", s.id)

		case m := <-h.broadcast:
			h.mu.Lock()
			for s := range h.sessions {
				if s == m.sender || s.PropertyID() != m.propertyID {
					continue
				}
				if !s.enqueue(m.message) {
					log.Printf("Dropping slow designer session %s", s.id)
					s.closeSend()
					delete(h.sessions, s)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

// Stop ends Run.
func (h *WebSocketHub) Stop() {
	close(h.done)
}

// Register adds a session to the hub.
func (h *WebSocketHub) Register(s *DesignerSession) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister removes a session and closes its send channel.
func (h *WebSocketHub) Unregister(s *DesignerSession) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// BroadcastProperty queues message for every other session editing propertyID.
func (h *WebSocketHub) BroadcastProperty(propertyID int64, sender *DesignerSession, message []byte) {
	select {
	case h.broadcast <- propertyMessage{propertyID: propertyID, sender: sender, message: message}:
	default:
		log.Printf("Dropped property %d update: broadcast queue full", propertyID)
	}
}

// NotifyPropertyChanged tells every session on propertyID except sender that
// the property changed. sender is nil for changes made over HTTP.
func (h *WebSocketHub) NotifyPropertyChanged(propertyID int64, sender *DesignerSession) {
	if h == nil {
		return
	}
	payload := PropertyUpdatedPayload{PropertyID: propertyID}
	if sender != nil {
		payload.SessionID = sender.id
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal property update: %v", err)
		return
	}
	message, err := json.Marshal(WebSocketMessage{Type: MsgPropertyUpdated, Data: raw})
	if err != nil {
		log.Printf("Failed to marshal property update: %v", err)
		return
	}
	h.BroadcastProperty(propertyID, sender, message)
}

// SessionCount returns the number of registered sessions.
func (h *WebSocketHub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
