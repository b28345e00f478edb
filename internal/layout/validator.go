package layout

import (
	"fmt"
	"log"

	"github.com/homestead/layout-server/internal/geometry"
	"github.com/homestead/layout-server/internal/model"
)

// ConflictUnknownType is reported when the candidate's structure type is not
// in the catalog.
const ConflictUnknownType = "Unknown structure type"

// Candidate is a footprint being tested for placement.
type Candidate struct {
	StructureID int64   `json:"structure_id"`
	Name        string  `json:"name,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	// ExcludeID skips the placed structure with this id, so a structure being
	// moved or edited does not collide with its own prior position.
	ExcludeID *int64 `json:"exclude_id,omitempty"`
}

// CandidateFor builds a candidate from a catalog entry placed at pos.
func CandidateFor(t model.StructureType, pos model.Position, name string, excludeID *int64) Candidate {
	return Candidate{
		StructureID: t.ID,
		Name:        name,
		X:           pos.X,
		Y:           pos.Y,
		Width:       t.Width,
		Height:      t.Length,
		ExcludeID:   excludeID,
	}
}

// Bounds returns the candidate's footprint.
func (c Candidate) Bounds() geometry.Rect {
	return geometry.Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// ValidationResult classifies a candidate placement.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	IsContained bool     `json:"is_contained"`
	Conflicts   []string `json:"conflicts"`
}

// Validator checks candidates against a property's placed structures.
type Validator struct {
	policy *Policy
}

// NewValidator creates a validator for the given policy. A nil policy uses
// the built-in rule table.
func NewValidator(policy *Policy) *Validator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Validator{policy: policy}
}

// Policy returns the validator's rule table.
func (v *Validator) Policy() *Policy {
	return v.policy
}

// Validate classifies c against existing. Conflicts are reported in the order
// of existing.
func (v *Validator) Validate(c Candidate, existing []model.PlacedStructure, catalog *model.Catalog) ValidationResult {
	candType, ok := catalog.Lookup(c.StructureID)
	if !ok {
		return ValidationResult{Conflicts: []string{ConflictUnknownType}}
	}

	candName := c.Name
	if candName == "" {
		candName = candType.Name
	}
	candBounds := c.Bounds()
	candContainer := v.policy.IsContainer(candType.Category)

	conflicts := make([]string, 0)
	contained := false

	for _, other := range existing {
		if c.ExcludeID != nil && other.ID == *c.ExcludeID {
			continue
		}
		otherType, ok := catalog.Lookup(other.StructureID)
		if !ok {
			log.Printf("Skipping placed structure %d with unknown structure type %d", other.ID, other.StructureID)
			continue
		}
		otherBounds := model.Footprint(otherType, other.Position)
		if !geometry.Intersects(candBounds, otherBounds) {
			continue
		}
		otherName := model.DisplayName(other, otherType)

		switch {
		case v.policy.IsContainer(otherType.Category):
			if !geometry.FullyContains(otherBounds, candBounds) {
				conflicts = append(conflicts, fmt.Sprintf("must be fully inside or outside %s", otherName))
			} else if v.policy.CanContain(otherType.Category, candType.Category) {
				contained = true
			} else {
				conflicts = append(conflicts, fmt.Sprintf("%s cannot contain %s", otherName, candName))
			}
		case candContainer:
			if !geometry.FullyContains(candBounds, otherBounds) {
				conflicts = append(conflicts, fmt.Sprintf("must fully contain or stay clear of %s", otherName))
			} else if v.policy.CanContain(candType.Category, otherType.Category) {
				contained = true
			} else {
				conflicts = append(conflicts, fmt.Sprintf("%s cannot contain %s", candName, otherName))
			}
		default:
			if !v.policy.CanOverlap(candType.Category, otherType.Category) {
				conflicts = append(conflicts, fmt.Sprintf("overlaps with %s", otherName))
			}
		}
	}

	valid := len(conflicts) == 0
	return ValidationResult{
		IsValid:     valid,
		IsContained: valid && contained,
		Conflicts:   conflicts,
	}
}
