// Package model defines the homestead layout records exchanged with the
// backend. JSON tags follow the backend's snake_case wire format and all
// coordinates are in feet with a top-left origin.
package model

import (
	"sort"

	"github.com/homestead/layout-server/internal/geometry"
)

// Category groups structure types for collision policy lookups.
type Category string

// Known categories. Any other string is accepted and handled by the
// fallback collision rule.
const (
	CategoryStructures     Category = "structures"
	CategoryGarden         Category = "garden"
	CategoryLivestock      Category = "livestock"
	CategoryStorage        Category = "storage"
	CategoryCompost        Category = "compost"
	CategoryWater          Category = "water"
	CategoryOrchard        Category = "orchard"
	CategoryInfrastructure Category = "infrastructure"
)

// StructureType is an immutable catalog entry.
type StructureType struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Width       float64  `json:"width"`  // feet
	Length      float64  `json:"length"` // feet
	Icon        string   `json:"icon,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Position is a top-left corner in feet.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlacedStructure is an instance of a StructureType on a property.
type PlacedStructure struct {
	ID          int64    `json:"id"`
	PropertyID  int64    `json:"property_id"`
	StructureID int64    `json:"structure_id"`
	Name        string   `json:"name,omitempty"`
	Position    Position `json:"position"`
	Rotation    int      `json:"rotation"` // stored only; footprint is always unrotated
	Cost        *float64 `json:"cost,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	BuiltDate   string   `json:"built_date,omitempty"`
}

// Property is a parcel with its ordered placed structures.
type Property struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Width      float64           `json:"width"`  // feet
	Length     float64           `json:"length"` // feet
	Address    string            `json:"address,omitempty"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	SoilType   string            `json:"soil_type,omitempty"`
	Slope      string            `json:"slope,omitempty"`
	Structures []PlacedStructure `json:"structures"`
}

// Area returns the property's area in square feet.
func (p *Property) Area() float64 {
	return p.Width * p.Length
}

// FindStructure returns a pointer into p.Structures for the given id.
func (p *Property) FindStructure(id int64) (*PlacedStructure, bool) {
	for i := range p.Structures {
		if p.Structures[i].ID == id {
			return &p.Structures[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the property's structure slice so callers can
// mutate positions without touching the original.
func (p *Property) Clone() *Property {
	c := *p
	c.Structures = make([]PlacedStructure, len(p.Structures))
	copy(c.Structures, p.Structures)
	return &c
}

// Catalog indexes structure types by id.
type Catalog struct {
	types map[int64]StructureType
}

// NewCatalog builds a catalog from a list of structure types. Later entries
// replace earlier ones with the same id.
func NewCatalog(types []StructureType) *Catalog {
	c := &Catalog{types: make(map[int64]StructureType, len(types))}
	for _, t := range types {
		c.types[t.ID] = t
	}
	return c
}

// Lookup returns the structure type with the given id.
func (c *Catalog) Lookup(id int64) (StructureType, bool) {
	if c == nil {
		return StructureType{}, false
	}
	t, ok := c.types[id]
	return t, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

// Types returns the catalog entries ordered by id.
func (c *Catalog) Types() []StructureType {
	if c == nil {
		return nil
	}
	out := make([]StructureType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Footprint returns the unrotated footprint of a structure type at pos.
func Footprint(t StructureType, pos Position) geometry.Rect {
	return geometry.Rect{X: pos.X, Y: pos.Y, Width: t.Width, Height: t.Length}
}

// DisplayName returns the custom name of a placed structure, falling back to
// the structure type's name.
func DisplayName(s PlacedStructure, t StructureType) string {
	if s.Name != "" {
		return s.Name
	}
	return t.Name
}
