package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PlacedStructureInput is the create/update payload for a placed structure,
// as submitted by the edit form or produced by a drag commit.
type PlacedStructureInput struct {
	PropertyID  int64    `json:"property_id" validate:"required,gt=0"`
	StructureID int64    `json:"structure_id" validate:"required,gt=0"`
	Name        string   `json:"name" validate:"max=100"`
	Position    Position `json:"position"`
	Rotation    int      `json:"rotation" validate:"oneof=0 90 180 270"`
	Notes       string   `json:"notes" validate:"max=2000"`
	Cost        *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	BuiltDate   string   `json:"built_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// InputFromStructure copies the editable fields of s into an input.
func InputFromStructure(s PlacedStructure) PlacedStructureInput {
	return PlacedStructureInput{
		PropertyID:  s.PropertyID,
		StructureID: s.StructureID,
		Name:        s.Name,
		Position:    s.Position,
		Rotation:    s.Rotation,
		Notes:       s.Notes,
		Cost:        s.Cost,
		BuiltDate:   s.BuiltDate,
	}
}

// Validate checks the input's field constraints.
func (in PlacedStructureInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return describeValidationError(err)
	}
	if in.Position.X < 0 || in.Position.Y < 0 {
		return fmt.Errorf("position must not be negative")
	}
	return nil
}

// StructureTypeInput is the create/update payload for a catalog entry.
type StructureTypeInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Category    Category `json:"category" validate:"required,max=50"`
	Width       float64  `json:"width" validate:"gt=0"`
	Length      float64  `json:"length" validate:"gt=0"`
	Icon        string   `json:"icon,omitempty"`
	Cost        *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Description string   `json:"description,omitempty"`
}

// Validate checks the input's field constraints.
func (in StructureTypeInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return describeValidationError(err)
	}
	return nil
}

// PropertyInput is the create/update payload for a property.
type PropertyInput struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Width     float64  `json:"width" validate:"gt=0"`
	Length    float64  `json:"length" validate:"gt=0"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	SoilType  string   `json:"soil_type,omitempty"`
	Slope     string   `json:"slope,omitempty"`
}

// Validate checks the input's field constraints.
func (in PropertyInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return describeValidationError(err)
	}
	return nil
}

func describeValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldName(fe), validationMessage(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "PropertyID":
		return "property_id"
	case "StructureID":
		return "structure_id"
	case "BuiltDate":
		return "built_date"
	case "SoilType":
		return "soil_type"
	default:
		return strings.ToLower(fe.Field())
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "latitude", "longitude":
		return fmt.Sprintf("must be a valid %s", fe.Tag())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
