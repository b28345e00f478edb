package api

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/model"
)

const (
	// ProtocolVersion1 is the only designer subprotocol.
	ProtocolVersion1 = "homestead-layout-v1"

	// Default ping interval (30 seconds)
	defaultPingInterval = 30 * time.Second

	// Pong wait timeout (60 seconds)
	pongWait = 60 * time.Second

	// Write timeout (10 seconds)
	writeTimeout = 10 * time.Second

	// Largest client message accepted
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

// DesignerSession is one websocket connection driving one designer screen.
// Its controller is only touched from the read loop.
type DesignerSession struct {
	id         string
	conn       *websocket.Conn
	hub        *WebSocketHub
	send       chan []byte
	controller *interaction.Controller
	propertyID atomic.Int64

	mu     sync.Mutex
	closed bool
}

func newDesignerSession(id string, conn *websocket.Conn, hub *WebSocketHub) *DesignerSession {
	return &DesignerSession{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

// ID returns the session's unique id.
func (s *DesignerSession) ID() string { return s.id }

// PropertyID returns the property the session has open, or zero.
func (s *DesignerSession) PropertyID() int64 { return s.propertyID.Load() }

// closeSend closes the outbound queue once. Called by the hub.
func (s *DesignerSession) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// enqueue queues a raw message without blocking.
func (s *DesignerSession) enqueue(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

// sendMessage marshals data into an envelope and queues it.
func (s *DesignerSession) sendMessage(msgType, id string, data interface{}) {
	msg := WebSocketMessage{Type: msgType, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("Failed to marshal %s message: %v", msgType, err)
			return
		}
		msg.Data = raw
	}
	s.sendEnvelope(msg)
}

func (s *DesignerSession) sendEnvelope(msg WebSocketMessage) {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	if !s.enqueue(messageBytes) {
		log.Printf("Failed to send %s to session %s: channel full or closed", msg.Type, s.id)
	}
}

// sendError sends an error message to the client
func (s *DesignerSession) sendError(id, errorMsg, code string) {
	errorResp := WebSocketError{
		Type:    MsgError,
		ID:      id,
		Error:   errorMsg,
		Message: errorMsg,
		Code:    code,
	}

	messageBytes, err := json.Marshal(errorResp)
	if err != nil {
		log.Printf("Failed to marshal error message: %v", err)
		return
	}

	if !s.enqueue(messageBytes) {
		log.Printf("Failed to send error message: channel full")
	}
}

// readPump handles incoming messages from the WebSocket connection
func (s *DesignerSession) readPump(handlers *WebSocketHandlers) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.Unregister(s)
		if err := s.conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	s.conn.SetPongHandler(func(string) error {
		if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
			return err
		}
		return nil
	})

	for {
		_, messageBytes, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			s.sendError("", "Invalid message format", CodeInvalidMessageFormat)
			continue
		}

		handlers.handleMessage(ctx, s, &msg)
	}
}

// writePump handles outgoing messages to the WebSocket connection. Each
// queued message goes out as its own text frame.
func (s *DesignerSession) writePump() {
	ticker := time.NewTicker(defaultPingInterval)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	for {
		select {
		case message, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Failed to set write deadline: %v", err)
				return
			}
			if !ok {
				if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					log.Printf("Failed to write close message: %v", err)
				}
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Failed to set write deadline for ping: %v", err)
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sessionNotifier relays controller outcomes to the client and the hub.
type sessionNotifier struct {
	session *DesignerSession
}

func (n sessionNotifier) Error(message string, details []string) {
	n.session.sendMessage(MsgToast, "", ToastPayload{Level: "error", Message: message, Details: details})
}

func (n sessionNotifier) Success(message string) {
	n.session.sendMessage(MsgToast, "", ToastPayload{Level: "success", Message: message})
}

func (n sessionNotifier) OpenEditForm(structure model.PlacedStructure) {
	n.session.sendMessage(MsgOpenEditForm, "", structure)
}

func (n sessionNotifier) PropertyChanged(propertyID int64) {
	n.session.hub.NotifyPropertyChanged(propertyID, n.session)
}
