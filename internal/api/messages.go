package api

import (
	"encoding/json"

	"github.com/homestead/layout-server/internal/compression"
	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/render"
)

// Client to server message types.
const (
	MsgPing             = "ping"
	MsgListProperties   = "list_properties"
	MsgSelectProperty   = "select_property"
	MsgPaletteDragStart = "palette_drag_start"
	MsgPaletteDragMove  = "palette_drag_move"
	MsgPaletteDragEnd   = "palette_drag_end"
	MsgPointerDown      = "pointer_down"
	MsgPointerMove      = "pointer_move"
	MsgPointerUp        = "pointer_up"
	MsgPointerLeave     = "pointer_leave"
	MsgClickStructure   = "click_structure"
	MsgSubmitStructure  = "submit_structure"
	MsgDeleteStructure  = "delete_structure"
	MsgSetGrid          = "set_grid"
	MsgReload           = "reload"
)

// Server to client message types.
const (
	MsgPong            = "pong"
	MsgProperties      = "properties"
	MsgView            = "view"
	MsgToast           = "toast"
	MsgOpenEditForm    = "open_edit_form"
	MsgPropertyUpdated = "property_updated"
	MsgError           = "error"
)

// Error codes carried by error messages.
const (
	CodeInvalidMessageFormat = "InvalidMessageFormat"
	CodeUnknownMessageType   = "UnknownMessageType"
	CodeNoPropertySelected   = "NoPropertySelected"
	CodeInvalidRequest       = "InvalidRequest"
	CodeInternalError        = "InternalError"
)

// WebSocketMessage is the envelope for every message in both directions.
// Large server payloads travel in Compressed instead of Data.
type WebSocketMessage struct {
	Type       string             `json:"type"`
	ID         string             `json:"id,omitempty"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Compressed *compression.Frame `json:"compressed,omitempty"`
}

// WebSocketError represents an error message sent over WebSocket
type WebSocketError struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SelectPropertyRequest opens a property in the designer.
type SelectPropertyRequest struct {
	PropertyID int64 `json:"property_id"`
}

// PointerRequest carries a pointer location in canvas pixels relative to the
// property's top-left corner. StructureID is set on palette_drag_start
// (a catalog id) and pointer_down (a placed structure id).
type PointerRequest struct {
	StructureID int64   `json:"structure_id,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Point returns the request's pointer location.
func (r PointerRequest) Point() interaction.Point {
	return interaction.Point{X: r.X, Y: r.Y}
}

// PaletteDropRequest ends a palette drag.
type PaletteDropRequest struct {
	OverCanvas bool               `json:"over_canvas"`
	Delta      *interaction.Point `json:"delta,omitempty"`
}

// StructureRequest names one placed structure.
type StructureRequest struct {
	StructureID int64 `json:"structure_id"`
}

// SubmitStructureRequest saves the edit form. A zero ID creates a structure.
type SubmitStructureRequest struct {
	ID        int64                      `json:"id"`
	Structure model.PlacedStructureInput `json:"structure"`
}

// ViewPayload is the body of a view message.
type ViewPayload struct {
	View  interaction.View `json:"view"`
	Scene *render.Scene    `json:"scene,omitempty"`
	SVG   string           `json:"svg,omitempty"`
}

// ToastPayload is a user-facing notification.
type ToastPayload struct {
	Level   string   `json:"level"` // "success" or "error"
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// PropertyUpdatedPayload tells a session its property changed elsewhere.
// SessionID is empty when the change came over HTTP.
type PropertyUpdatedPayload struct {
	PropertyID int64  `json:"property_id"`
	SessionID  string `json:"session_id,omitempty"`
}
