package interaction

import (
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
)

// View is the derived state the render layer draws.
type View struct {
	Property *model.Property `json:"property,omitempty"`
	Catalog  *model.Catalog  `json:"-"`
	State    State           `json:"state"`
	Grid     GridToggles     `json:"grid"`
	Drag     *DragView       `json:"drag,omitempty"`
}

// DragView describes an active drag.
type DragView struct {
	Source SourceKind `json:"source"`
	// PlacedID is the structure being moved; zero for palette drags.
	PlacedID    int64                    `json:"placed_id,omitempty"`
	StructureID int64                    `json:"structure_id"`
	Name        string                   `json:"name"`
	Position    model.Position           `json:"position"`
	Width       float64                  `json:"width"`
	Length      float64                  `json:"length"`
	InBounds    bool                     `json:"in_bounds"`
	Cursor      *Point                   `json:"cursor,omitempty"`
	Result      *layout.ValidationResult `json:"result,omitempty"`
}

// View snapshots the controller for rendering. Drag is only set once a drag
// is active.
func (c *Controller) View() View {
	v := View{
		Property: c.property,
		Catalog:  c.catalog,
		State:    c.State(),
		Grid:     c.grid,
	}
	s := c.session
	if s == nil || s.state != ActiveDrag {
		return v
	}
	t := s.source.Type()
	d := &DragView{
		Source:      s.source.Kind(),
		StructureID: t.ID,
		Name:        t.Name,
		Position:    s.position,
		Width:       t.Width,
		Length:      t.Length,
		InBounds:    s.inBounds,
		Result:      s.result,
	}
	if s.cursor != nil {
		cur := *s.cursor
		d.Cursor = &cur
	}
	if src, ok := s.source.(*PlacedSource); ok {
		d.PlacedID = src.Structure.ID
		d.Name = model.DisplayName(src.Structure, t)
	}
	v.Drag = d
	return v
}
