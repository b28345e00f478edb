package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/homestead/layout-server/internal/backend"
	"github.com/homestead/layout-server/internal/compression"
	"github.com/homestead/layout-server/internal/config"
	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/performance"
	"github.com/homestead/layout-server/internal/render"
)

// messageTimeout bounds the backend work done for one client message.
const messageTimeout = 30 * time.Second

// WebSocketHandlers handles designer websocket connections
type WebSocketHandlers struct {
	hub                  *WebSocketHub
	store                SessionStore
	validator            *layout.Validator
	settings             interaction.Settings
	renderOptions        render.Options
	compressionThreshold int
	profiler             *performance.Profiler
	debug                bool
	upgrader             websocket.Upgrader
}

// NewWebSocketHandlers creates a new WebSocket handlers instance. The caller
// runs the returned hub.
func NewWebSocketHandlers(cfg *config.Config, store SessionStore, validator *layout.Validator, profiler *performance.Profiler) *WebSocketHandlers {
	allowedOrigins := cfg.Server.AllowedOrigins
	return &WebSocketHandlers{
		hub:                  NewWebSocketHub(),
		store:                store,
		validator:            validator,
		settings:             designerSettings(cfg),
		renderOptions:        renderOptions(cfg),
		compressionThreshold: cfg.Designer.CompressionThreshold,
		profiler:             profiler,
		debug:                cfg.Logging.IsDebug(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Non-browser clients send no Origin.
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Hub returns the session hub.
func (h *WebSocketHandlers) Hub() *WebSocketHub {
	return h.hub
}

func designerSettings(cfg *config.Config) interaction.Settings {
	return interaction.Settings{
		PixelsPerFoot: cfg.Designer.PixelsPerFoot,
		GridSize:      cfg.Designer.GridSize,
		DragThreshold: cfg.Designer.DragThreshold,
	}
}

func renderOptions(cfg *config.Config) render.Options {
	opts := render.DefaultOptions()
	opts.PixelsPerFoot = cfg.Designer.PixelsPerFoot
	if cfg.Designer.MinorGridMaxFeet > 0 {
		opts.MinorGridMaxFeet = cfg.Designer.MinorGridMaxFeet
	}
	if cfg.Designer.SuperMajorMinFeet > 0 {
		opts.SuperMajorMinFeet = cfg.Designer.SuperMajorMinFeet
	}
	return opts
}

// HandleWebSocket upgrades the connection and starts a designer session
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	requestedVersions := r.Header.Get("Sec-WebSocket-Protocol")
	selectedVersion := negotiateVersion(requestedVersions)
	if selectedVersion == "" {
		log.Printf("WebSocket version negotiation failed: requested=%s", requestedVersions)
		http.Error(w, "Unsupported protocol version", http.StatusBadRequest)
		return
	}

	var responseHeaders http.Header
	if requestedVersions != "" {
		responseHeaders = http.Header{}
		responseHeaders.Set("Sec-WebSocket-Protocol", selectedVersion)
	}

	conn, err := h.upgrader.Upgrade(w, r, responseHeaders)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	session := newDesignerSession(uuid.NewString(), conn, h.hub)
	session.controller = interaction.NewController(h.store, sessionNotifier{session: session}, h.validator, h.settings, h.profiler)

	h.hub.Register(session)

	go session.writePump()
	go session.readPump(h)
}

// negotiateVersion selects the highest supported protocol version
func negotiateVersion(requested string) string {
	if requested == "" {
		return ProtocolVersion1
	}

	supportedVersions := []string{ProtocolVersion1}
	for _, supported := range supportedVersions {
		for _, v := range strings.Split(requested, ",") {
			if strings.TrimSpace(v) == supported {
				return supported
			}
		}
	}
	return ""
}

// handleMessage routes messages to appropriate handlers
func (h *WebSocketHandlers) handleMessage(ctx context.Context, s *DesignerSession, msg *WebSocketMessage) {
	defer h.profiler.Start(performance.MetricWSMessage).End()

	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	if h.debug {
		log.Printf("Session %s: %s (id=%s, state=%s)", s.id, msg.Type, msg.ID, s.controller.State())
	}

	c := s.controller
	var err error
	switch msg.Type {
	case MsgPing:
		s.sendMessage(MsgPong, msg.ID, nil)
		return

	case MsgListProperties:
		properties, err := h.store.ListProperties(ctx)
		if err != nil {
			h.sendControllerError(s, msg, err)
			return
		}
		s.sendMessage(MsgProperties, msg.ID, properties)
		return

	case MsgSelectProperty:
		var req SelectPropertyRequest
		if !decodeData(s, msg, &req) {
			return
		}
		if err = c.SelectProperty(ctx, req.PropertyID); err == nil {
			s.propertyID.Store(req.PropertyID)
		}

	case MsgReload:
		err = c.Reload(ctx)

	case MsgSetGrid:
		var req interaction.GridToggles
		if !decodeData(s, msg, &req) {
			return
		}
		c.SetGrid(req)

	case MsgPaletteDragStart:
		var req PointerRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.PaletteDragStart(req.StructureID, req.Point())

	case MsgPaletteDragMove:
		var req PointerRequest
		if !decodeData(s, msg, &req) {
			return
		}
		c.PaletteDragMove(req.Point())

	case MsgPaletteDragEnd:
		var req PaletteDropRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.PaletteDragEnd(ctx, req.OverCanvas, req.Delta)

	case MsgPointerDown:
		var req PointerRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.PointerDown(req.StructureID, req.Point())

	case MsgPointerMove:
		var req PointerRequest
		if !decodeData(s, msg, &req) {
			return
		}
		c.PointerMove(req.Point())

	case MsgPointerUp:
		err = c.PointerUp(ctx)

	case MsgPointerLeave:
		err = c.PointerLeave(ctx)

	case MsgClickStructure:
		var req StructureRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.ClickStructure(req.StructureID)

	case MsgSubmitStructure:
		var req SubmitStructureRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.SubmitStructure(ctx, req.ID, req.Structure)

	case MsgDeleteStructure:
		var req StructureRequest
		if !decodeData(s, msg, &req) {
			return
		}
		err = c.DeleteStructure(ctx, req.StructureID)

	default:
		s.sendError(msg.ID, "Unknown message type", CodeUnknownMessageType)
		return
	}

	if err != nil {
		h.sendControllerError(s, msg, err)
		return
	}
	h.sendView(s, msg.ID)
}

// decodeData unmarshals msg.Data into target, answering with an error
// message on failure.
func decodeData(s *DesignerSession, msg *WebSocketMessage, target interface{}) bool {
	if len(msg.Data) == 0 {
		s.sendError(msg.ID, "Missing message data", CodeInvalidMessageFormat)
		return false
	}
	if err := json.Unmarshal(msg.Data, target); err != nil {
		s.sendError(msg.ID, "Invalid message data: "+err.Error(), CodeInvalidMessageFormat)
		return false
	}
	return true
}

func (h *WebSocketHandlers) sendControllerError(s *DesignerSession, msg *WebSocketMessage, err error) {
	switch {
	case errors.Is(err, interaction.ErrNoProperty):
		s.sendError(msg.ID, "No property selected", CodeNoPropertySelected)
	case errors.Is(err, interaction.ErrDragInProgress), errors.Is(err, interaction.ErrUnknownStructure):
		s.sendError(msg.ID, err.Error(), CodeInvalidRequest)
	case backend.IsNotFound(err):
		s.sendError(msg.ID, "Not found", CodeInvalidRequest)
	default:
		log.Printf("Session %s: %s failed: %v", s.id, msg.Type, err)
		s.sendError(msg.ID, "Request failed", CodeInternalError)
	}
}

// sendView pushes the session's current view, scene and SVG. Payloads at or
// above the compression threshold are gzip framed.
func (h *WebSocketHandlers) sendView(s *DesignerSession, id string) {
	payload := ViewPayload{View: s.controller.View()}
	if payload.View.Property != nil {
		scene, err := h.buildScene(payload.View)
		if err != nil {
			log.Printf("Session %s: failed to build scene: %v", s.id, err)
			s.sendError(id, "Failed to render layout", CodeInternalError)
			return
		}
		svg, err := h.renderSVG(scene)
		if err != nil {
			log.Printf("Session %s: failed to render SVG: %v", s.id, err)
			s.sendError(id, "Failed to render layout", CodeInternalError)
			return
		}
		payload.Scene = scene
		payload.SVG = svg
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal view: %v", err)
		return
	}

	msg := WebSocketMessage{Type: MsgView, ID: id}
	frame, err := compression.Encode(raw, h.compressionThreshold)
	switch {
	case err != nil:
		log.Printf("Failed to compress view, sending uncompressed: %v", err)
		msg.Data = raw
	case frame != nil:
		msg.Compressed = frame
	default:
		msg.Data = raw
	}
	s.sendEnvelope(msg)
}

func (h *WebSocketHandlers) buildScene(v interaction.View) (*render.Scene, error) {
	defer h.profiler.Start(performance.MetricBuildScene).End()
	return render.BuildScene(v, h.renderOptions)
}

func (h *WebSocketHandlers) renderSVG(s *render.Scene) (string, error) {
	defer h.profiler.Start(performance.MetricRenderSVG).End()
	return render.RenderSVG(s)
}
