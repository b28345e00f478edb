// Package interaction turns pointer events from a designer screen into
// validated placements and persistence calls.
//
// A Controller owns the state of one screen: the selected property, the
// catalog, grid toggles and at most one drag session. It is not safe for
// concurrent use; the websocket session that owns it feeds it one message
// at a time.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/performance"
)

var (
	// ErrNoProperty is returned by operations that need a selected property.
	ErrNoProperty = errors.New("no property selected")
	// ErrDragInProgress is returned when a drag starts while another is open.
	ErrDragInProgress = errors.New("a drag is already in progress")
	// ErrUnknownStructure is returned for ids missing from the property or
	// catalog.
	ErrUnknownStructure = errors.New("unknown structure")
)

// Settings are the fixed scales of the designer canvas.
type Settings struct {
	PixelsPerFoot float64
	GridSize      float64 // feet
	DragThreshold float64 // pixels
}

// DefaultSettings returns 10 px per foot, a 1 ft grid and a 5 px threshold.
func DefaultSettings() Settings {
	return Settings{PixelsPerFoot: 10, GridSize: 1, DragThreshold: 5}
}

// Store persists layout changes. The backend client implements it.
type Store interface {
	GetProperty(ctx context.Context, id int64) (*model.Property, error)
	ListStructureTypes(ctx context.Context) ([]model.StructureType, error)
	CreatePlacedStructure(ctx context.Context, in model.PlacedStructureInput) (*model.PlacedStructure, error)
	UpdatePlacedStructure(ctx context.Context, id int64, in model.PlacedStructureInput) (*model.PlacedStructure, error)
	DeletePlacedStructure(ctx context.Context, id int64) error
}

// Notifier receives user-facing outcomes.
type Notifier interface {
	Error(message string, details []string)
	Success(message string)
	OpenEditForm(structure model.PlacedStructure)
	// PropertyChanged is called after a committed change to the property.
	PropertyChanged(propertyID int64)
}

// GridToggles are the user's grid tier switches.
type GridToggles struct {
	Minor      bool `json:"minor"`
	Major      bool `json:"major"`
	SuperMajor bool `json:"super_major"`
}

// Controller drives one designer screen.
type Controller struct {
	store     Store
	notifier  Notifier
	validator *layout.Validator
	settings  Settings
	profiler  *performance.Profiler

	property *model.Property
	catalog  *model.Catalog
	grid     GridToggles
	session  *DragSession
}

// NewController creates a controller. profiler may be nil.
func NewController(store Store, notifier Notifier, validator *layout.Validator, settings Settings, profiler *performance.Profiler) *Controller {
	if validator == nil {
		validator = layout.NewValidator(nil)
	}
	return &Controller{
		store:     store,
		notifier:  notifier,
		validator: validator,
		settings:  settings,
		profiler:  profiler,
		grid:      GridToggles{Minor: true, Major: true, SuperMajor: true},
	}
}

// Settings returns the controller's canvas scales.
func (c *Controller) Settings() Settings { return c.settings }

// Property returns the local copy of the selected property, or nil.
func (c *Controller) Property() *model.Property { return c.property }

// Catalog returns the loaded catalog, or nil.
func (c *Controller) Catalog() *model.Catalog { return c.catalog }

// State returns the current drag state.
func (c *Controller) State() State {
	if c.session == nil {
		return Idle
	}
	return c.session.state
}

// Grid returns the grid toggles.
func (c *Controller) Grid() GridToggles { return c.grid }

// SetGrid replaces the grid toggles.
func (c *Controller) SetGrid(g GridToggles) { c.grid = g }

// LoadCatalog fetches the structure type catalog.
func (c *Controller) LoadCatalog(ctx context.Context) error {
	types, err := c.store.ListStructureTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load structure types: %w", err)
	}
	c.catalog = model.NewCatalog(types)
	return nil
}

// SelectProperty loads a property (and the catalog on first use) and makes it
// the one rendered. Any open drag is dropped.
func (c *Controller) SelectProperty(ctx context.Context, id int64) error {
	if c.catalog == nil {
		if err := c.LoadCatalog(ctx); err != nil {
			return err
		}
	}
	p, err := c.store.GetProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load property %d: %w", id, err)
	}
	c.session = nil
	c.property = p
	return nil
}

// Reload refetches the catalog and the selected property and drops any open
// drag. On failure the local copy is kept and the user is told.
func (c *Controller) Reload(ctx context.Context) error {
	if c.property == nil {
		return ErrNoProperty
	}
	c.session = nil
	if err := c.LoadCatalog(ctx); err != nil {
		c.notifier.Error("Failed to reload structure types", []string{err.Error()})
		return err
	}
	return c.reload(ctx)
}

func (c *Controller) reload(ctx context.Context) error {
	p, err := c.store.GetProperty(ctx, c.property.ID)
	if err != nil {
		log.Printf("Failed to reload property %d: %v", c.property.ID, err)
		c.notifier.Error("Failed to reload property", []string{err.Error()})
		return fmt.Errorf("failed to reload property %d: %w", c.property.ID, err)
	}
	c.property = p
	return nil
}

// persistFailed reports a failed backend mutation and resynchronizes.
func (c *Controller) persistFailed(ctx context.Context, message string, err error) {
	log.Printf("%s: %v", message, err)
	c.notifier.Error(message, []string{err.Error()})
	_ = c.reload(ctx)
}

func (c *Controller) committed(ctx context.Context, message string) {
	c.notifier.Success(message)
	_ = c.reload(ctx)
	c.notifier.PropertyChanged(c.property.ID)
}

func (c *Controller) validate(cand layout.Candidate) layout.ValidationResult {
	defer c.profiler.Start(performance.MetricValidate).End()
	return c.validator.Validate(cand, c.property.Structures, c.catalog)
}

func (c *Controller) evaluate(s *DragSession) {
	t := s.source.Type()
	res := c.validate(layout.CandidateFor(t, s.position, "", s.source.ExcludeID()))
	s.result = &res
}

// PaletteDragStart begins dragging a new structure of type typeID. The
// drag is active immediately.
func (c *Controller) PaletteDragStart(typeID int64, pointer Point) error {
	if c.property == nil {
		return ErrNoProperty
	}
	if c.session != nil {
		return ErrDragInProgress
	}
	t, ok := c.catalog.Lookup(typeID)
	if !ok {
		return fmt.Errorf("structure type %d: %w", typeID, ErrUnknownStructure)
	}
	s := newDragSession(&PaletteSource{StructureType: t, PropertyID: c.property.ID}, pointer, model.Position{}, c.settings)
	c.session = s
	c.preview(pointer)
	return nil
}

// PaletteDragMove tracks the cursor for the coordinate readout and refreshes
// the ghost preview. It does not affect where the structure is dropped.
func (c *Controller) PaletteDragMove(pointer Point) {
	if c.session == nil || c.session.source.Kind() != SourcePalette {
		return
	}
	c.session.track(pointer, c.settings)
	c.preview(pointer)
}

func (c *Controller) preview(pointer Point) {
	s := c.session
	s.position, s.inBounds = s.candidateAt(pointer, c.property, c.settings)
	if !s.inBounds {
		s.result = nil
		return
	}
	c.evaluate(s)
}

// PaletteDragEnd drops the new structure. Drops outside the canvas are
// ignored. The final position comes from the tracked cursor, or from the
// start point plus delta when no cursor was seen.
func (c *Controller) PaletteDragEnd(ctx context.Context, overCanvas bool, delta *Point) error {
	s := c.session
	if s == nil || s.source.Kind() != SourcePalette {
		return nil
	}
	defer func() { c.session = nil }()

	if !overCanvas {
		return nil
	}

	pointer := s.origin
	switch {
	case s.cursor != nil:
		pointer = *s.cursor
	case delta != nil:
		pointer = Point{X: s.origin.X + delta.X, Y: s.origin.Y + delta.Y}
	}

	t := s.source.Type()
	pos, ok := s.candidateAt(pointer, c.property, c.settings)
	if !ok {
		s.state = Reverting
		c.notifier.Error(fmt.Sprintf("%s must fit within the property boundary", t.Name), nil)
		return nil
	}
	s.position = pos
	c.evaluate(s)
	if !s.result.IsValid {
		s.state = Reverting
		c.notifier.Error(fmt.Sprintf("Cannot place %s", t.Name), s.result.Conflicts)
		return nil
	}

	s.state = Committing
	if err := s.source.Commit(ctx, c.store, pos); err != nil {
		c.persistFailed(ctx, fmt.Sprintf("Failed to add %s", t.Name), err)
		return nil
	}
	c.committed(ctx, fmt.Sprintf("%s added", t.Name))
	return nil
}

// PointerDown arms a reposition of a placed structure. Nothing moves until
// the pointer travels past the drag threshold.
func (c *Controller) PointerDown(structureID int64, pointer Point) error {
	if c.property == nil {
		return ErrNoProperty
	}
	if c.session != nil {
		return ErrDragInProgress
	}
	ps, ok := c.property.FindStructure(structureID)
	if !ok {
		return fmt.Errorf("placed structure %d: %w", structureID, ErrUnknownStructure)
	}
	t, ok := c.catalog.Lookup(ps.StructureID)
	if !ok {
		// Keep the id so validation reports the missing type.
		t = model.StructureType{ID: ps.StructureID}
	}
	c.session = newDragSession(&PlacedSource{Structure: *ps, StructureType: t}, pointer, ps.Position, c.settings)
	return nil
}

// PointerMove updates a reposition drag. Once active, the candidate is
// snapped, clamped, validated and written into the local property copy.
func (c *Controller) PointerMove(pointer Point) {
	s := c.session
	if s == nil || s.source.Kind() != SourcePlaced {
		return
	}
	if !s.track(pointer, c.settings) {
		return
	}
	s.position, s.inBounds = s.candidateAt(pointer, c.property, c.settings)
	c.evaluate(s)
	if ps, ok := c.property.FindStructure(s.source.(*PlacedSource).Structure.ID); ok {
		ps.Position = s.position
	}
}

// PointerUp ends a reposition. A drag that never activated is a click and
// opens the edit form.
func (c *Controller) PointerUp(ctx context.Context) error {
	s := c.session
	if s == nil || s.source.Kind() != SourcePlaced {
		return nil
	}
	defer func() { c.session = nil }()

	src := s.source.(*PlacedSource)
	name := model.DisplayName(src.Structure, src.StructureType)

	switch {
	case s.state == PendingDrag:
		c.notifier.OpenEditForm(src.Structure)
	case s.result == nil || !s.result.IsValid:
		s.state = Reverting
		if ps, ok := c.property.FindStructure(src.Structure.ID); ok {
			ps.Position = s.startPos
		}
		var conflicts []string
		if s.result != nil {
			conflicts = s.result.Conflicts
		}
		c.notifier.Error(fmt.Sprintf("Cannot move %s", name), conflicts)
		_ = c.reload(ctx)
	case !s.Moved():
	default:
		s.state = Committing
		if err := s.source.Commit(ctx, c.store, s.position); err != nil {
			c.persistFailed(ctx, fmt.Sprintf("Failed to move %s", name), err)
			return nil
		}
		c.committed(ctx, fmt.Sprintf("%s moved", name))
	}
	return nil
}

// PointerLeave ends a reposition the same way as PointerUp.
func (c *Controller) PointerLeave(ctx context.Context) error {
	return c.PointerUp(ctx)
}

// ClickStructure opens the edit form for a placed structure.
func (c *Controller) ClickStructure(structureID int64) error {
	if c.property == nil {
		return ErrNoProperty
	}
	if c.session != nil {
		return ErrDragInProgress
	}
	ps, ok := c.property.FindStructure(structureID)
	if !ok {
		return fmt.Errorf("placed structure %d: %w", structureID, ErrUnknownStructure)
	}
	c.notifier.OpenEditForm(*ps)
	return nil
}

// SubmitStructure saves the edit form. An id of zero creates a new placed
// structure. The input is checked field by field, then against the boundary
// and the placement rules.
func (c *Controller) SubmitStructure(ctx context.Context, id int64, in model.PlacedStructureInput) error {
	if c.property == nil {
		return ErrNoProperty
	}
	if id != 0 {
		if _, ok := c.property.FindStructure(id); !ok {
			return fmt.Errorf("placed structure %d: %w", id, ErrUnknownStructure)
		}
	}
	in.PropertyID = c.property.ID
	if err := in.Validate(); err != nil {
		c.notifier.Error("Invalid structure details", []string{err.Error()})
		return nil
	}
	t, ok := c.catalog.Lookup(in.StructureID)
	if !ok {
		c.notifier.Error(layout.ConflictUnknownType, nil)
		return nil
	}
	name := in.Name
	if name == "" {
		name = t.Name
	}
	if !model.Footprint(t, in.Position).Within(c.property.Width, c.property.Length) {
		c.notifier.Error(fmt.Sprintf("%s must fit within the property boundary", name), nil)
		return nil
	}

	var exclude *int64
	if id != 0 {
		exclude = &id
	}
	res := c.validate(layout.CandidateFor(t, in.Position, in.Name, exclude))
	if !res.IsValid {
		c.notifier.Error(fmt.Sprintf("Cannot place %s", name), res.Conflicts)
		return nil
	}

	var err error
	if id == 0 {
		_, err = c.store.CreatePlacedStructure(ctx, in)
	} else {
		_, err = c.store.UpdatePlacedStructure(ctx, id, in)
	}
	if err != nil {
		c.persistFailed(ctx, fmt.Sprintf("Failed to save %s", name), err)
		return nil
	}
	c.committed(ctx, fmt.Sprintf("%s saved", name))
	return nil
}

// DeleteStructure removes a placed structure of the selected property.
func (c *Controller) DeleteStructure(ctx context.Context, id int64) error {
	if c.property == nil {
		return ErrNoProperty
	}
	ps, ok := c.property.FindStructure(id)
	if !ok {
		return fmt.Errorf("placed structure %d: %w", id, ErrUnknownStructure)
	}
	name := fmt.Sprintf("structure %d", id)
	t, _ := c.catalog.Lookup(ps.StructureID)
	if n := model.DisplayName(*ps, t); n != "" {
		name = n
	}
	if err := c.store.DeletePlacedStructure(ctx, id); err != nil {
		c.persistFailed(ctx, fmt.Sprintf("Failed to delete %s", name), err)
		return nil
	}
	c.committed(ctx, fmt.Sprintf("%s deleted", name))
	return nil
}
