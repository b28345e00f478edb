package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/homestead/layout-server/internal/model"
)

// CatalogEntry is a structure type as shown in the palette. HasRule is false
// for categories the collision rules do not name.
type CatalogEntry struct {
	model.StructureType
	HasRule bool `json:"has_rule"`
}

// CatalogResponse feeds the designer palette.
type CatalogResponse struct {
	Categories []model.Category `json:"categories"`
	Types      []CatalogEntry   `json:"types"`
}

func (h *LayoutHandlers) entry(t model.StructureType) CatalogEntry {
	return CatalogEntry{StructureType: t, HasRule: h.validator.Policy().Known(t.Category)}
}

// GetCatalog returns the structure catalog ordered by id, with the rule
// categories the palette groups by.
func (h *LayoutHandlers) GetCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	types, err := h.backend.ListStructureTypes(ctx)
	if err != nil {
		respondWithBackendError(w, err, "Structure types")
		return
	}

	catalog := model.NewCatalog(types)
	resp := CatalogResponse{
		Categories: h.validator.Policy().Categories(),
		Types:      make([]CatalogEntry, 0, catalog.Len()),
	}
	for _, t := range catalog.Types() {
		resp.Types = append(resp.Types, h.entry(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCatalogEntry returns one structure type.
func (h *LayoutHandlers) GetCatalogEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "structure type")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	t, err := h.backend.GetStructureType(ctx, id)
	if err != nil {
		respondWithBackendError(w, err, "Structure type")
		return
	}
	writeJSON(w, http.StatusOK, h.entry(*t))
}

// CreateCatalogEntry adds a structure type.
func (h *LayoutHandlers) CreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeStructureTypeInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	t, err := h.backend.CreateStructureType(ctx, in)
	if err != nil {
		respondWithBackendError(w, err, "Structure type")
		return
	}
	writeJSON(w, http.StatusCreated, h.entry(*t))
}

// UpdateCatalogEntry replaces a structure type.
func (h *LayoutHandlers) UpdateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "structure type")
	if !ok {
		return
	}
	in, ok := decodeStructureTypeInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	t, err := h.backend.UpdateStructureType(ctx, id, in)
	if err != nil {
		respondWithBackendError(w, err, "Structure type")
		return
	}
	writeJSON(w, http.StatusOK, h.entry(*t))
}

// DeleteCatalogEntry removes a structure type. Types still placed on a
// property are refused with 409 naming those properties.
func (h *LayoutHandlers) DeleteCatalogEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "structure type")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	inUse, err := h.propertiesUsing(ctx, id)
	if err != nil {
		respondWithBackendError(w, err, "Structure type")
		return
	}
	if len(inUse) > 0 {
		writeJSON(w, http.StatusConflict, ConflictResponse{
			Error:     "Structure type is still placed",
			Conflicts: inUse,
		})
		return
	}

	if err := h.backend.DeleteStructureType(ctx, id); err != nil {
		respondWithBackendError(w, err, "Structure type")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// propertiesUsing names the properties with at least one structure of type
// typeID.
func (h *LayoutHandlers) propertiesUsing(ctx context.Context, typeID int64) ([]string, error) {
	properties, err := h.backend.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range properties {
		placed, err := h.backend.ListPlacedStructures(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list structures of property %d: %w", p.ID, err)
		}
		for _, s := range placed {
			if s.StructureID == typeID {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names, nil
}

func decodeStructureTypeInput(w http.ResponseWriter, r *http.Request) (model.StructureTypeInput, bool) {
	var in model.StructureTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return in, false
	}
	if err := in.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return in, false
	}
	return in, true
}
