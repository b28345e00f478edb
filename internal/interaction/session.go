package interaction

import (
	"context"
	"fmt"

	"github.com/homestead/layout-server/internal/geometry"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
)

// State is the drag state of a designer screen.
type State int

const (
	Idle State = iota
	PendingDrag
	ActiveDrag
	Committing
	Reverting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingDrag:
		return "pending_drag"
	case ActiveDrag:
		return "active_drag"
	case Committing:
		return "committing"
	case Reverting:
		return "reverting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets State appear by name in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, PendingDrag, ActiveDrag, Committing, Reverting} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown drag state %q", text)
}

// SourceKind names where a dragged structure comes from.
type SourceKind string

const (
	SourcePalette SourceKind = "palette"
	SourcePlaced  SourceKind = "placed"
)

// Point is a pointer location in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Source supplies the behavior that differs between dragging a new structure
// off the palette and repositioning one that is already placed.
type Source interface {
	Kind() SourceKind
	// Type is the catalog entry whose footprint is dragged.
	Type() model.StructureType
	// ExcludeID is the placed structure ignored during validation, if any.
	ExcludeID() *int64
	// Threshold is the pointer travel in pixels that must be exceeded before
	// the drag activates. A negative threshold activates immediately.
	Threshold(settings Settings) float64
	// Fit adjusts a snapped position to the property. It reports false when
	// the footprint cannot be placed there at all.
	Fit(pos model.Position, property *model.Property) (model.Position, bool)
	// Commit persists the final position.
	Commit(ctx context.Context, store Store, pos model.Position) error
}

// PaletteSource is a new structure dragged from the palette.
type PaletteSource struct {
	StructureType model.StructureType
	PropertyID    int64
}

func (s *PaletteSource) Kind() SourceKind           { return SourcePalette }
func (s *PaletteSource) Type() model.StructureType  { return s.StructureType }
func (s *PaletteSource) ExcludeID() *int64          { return nil }
func (s *PaletteSource) Threshold(Settings) float64 { return -1 }

// Fit rejects any footprint crossing the property boundary. New drops are
// never clamped.
func (s *PaletteSource) Fit(pos model.Position, property *model.Property) (model.Position, bool) {
	return pos, model.Footprint(s.StructureType, pos).Within(property.Width, property.Length)
}

// Commit creates the placed structure.
func (s *PaletteSource) Commit(ctx context.Context, store Store, pos model.Position) error {
	_, err := store.CreatePlacedStructure(ctx, model.PlacedStructureInput{
		PropertyID:  s.PropertyID,
		StructureID: s.StructureType.ID,
		Position:    pos,
	})
	return err
}

// PlacedSource is an existing structure being repositioned.
type PlacedSource struct {
	Structure     model.PlacedStructure
	StructureType model.StructureType
}

func (s *PlacedSource) Kind() SourceKind          { return SourcePlaced }
func (s *PlacedSource) Type() model.StructureType { return s.StructureType }

func (s *PlacedSource) ExcludeID() *int64 {
	id := s.Structure.ID
	return &id
}

func (s *PlacedSource) Threshold(settings Settings) float64 {
	return settings.DragThreshold
}

// Fit clamps the footprint inside the property.
func (s *PlacedSource) Fit(pos model.Position, property *model.Property) (model.Position, bool) {
	return model.Position{
		X: geometry.Clamp(pos.X, 0, property.Width-s.StructureType.Width),
		Y: geometry.Clamp(pos.Y, 0, property.Length-s.StructureType.Length),
	}, true
}

// Commit updates the structure's position, keeping its other fields.
func (s *PlacedSource) Commit(ctx context.Context, store Store, pos model.Position) error {
	in := model.InputFromStructure(s.Structure)
	in.Position = pos
	_, err := store.UpdatePlacedStructure(ctx, s.Structure.ID, in)
	return err
}

// DragSession tracks one drag from pointer-down (or palette pick-up) to
// release.
type DragSession struct {
	source   Source
	state    State
	origin   Point // pointer at start
	offset   Point // pointer minus footprint corner, pixels
	cursor   *Point
	startPos model.Position
	position model.Position
	inBounds bool
	result   *layout.ValidationResult
}

func newDragSession(source Source, pointer Point, start model.Position, settings Settings) *DragSession {
	s := &DragSession{
		source:   source,
		state:    PendingDrag,
		origin:   pointer,
		startPos: start,
		position: start,
		inBounds: true,
	}
	if source.Kind() == SourcePlaced {
		s.offset = Point{
			X: pointer.X - start.X*settings.PixelsPerFoot,
			Y: pointer.Y - start.Y*settings.PixelsPerFoot,
		}
	}
	if source.Threshold(settings) < 0 {
		s.state = ActiveDrag
	}
	return s
}

// State returns the session's state.
func (s *DragSession) State() State { return s.state }

// Source returns the session's source.
func (s *DragSession) Source() Source { return s.source }

// Position returns the latest candidate position in feet.
func (s *DragSession) Position() model.Position { return s.position }

// Moved reports whether the candidate differs from the start position.
func (s *DragSession) Moved() bool { return s.position != s.startPos }

// track moves the pointer and reports whether the drag is active. Pending
// sessions activate only once displacement exceeds the source threshold.
func (s *DragSession) track(pointer Point, settings Settings) bool {
	p := pointer
	s.cursor = &p
	if s.state == PendingDrag {
		if geometry.Distance(s.origin.X, s.origin.Y, pointer.X, pointer.Y) <= s.source.Threshold(settings) {
			return false
		}
		s.state = ActiveDrag
	}
	return s.state == ActiveDrag
}

// candidateAt converts a pointer location to a snapped, fitted position.
func (s *DragSession) candidateAt(pointer Point, property *model.Property, settings Settings) (model.Position, bool) {
	pos := model.Position{
		X: geometry.Snap((pointer.X-s.offset.X)/settings.PixelsPerFoot, settings.GridSize),
		Y: geometry.Snap((pointer.Y-s.offset.Y)/settings.PixelsPerFoot, settings.GridSize),
	}
	return s.source.Fit(pos, property)
}
