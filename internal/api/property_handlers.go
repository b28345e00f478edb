package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/homestead/layout-server/internal/model"
)

// ListProperties returns every property for the designer's property picker.
func (h *LayoutHandlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	properties, err := h.backend.ListProperties(ctx)
	if err != nil {
		respondWithBackendError(w, err, "Properties")
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

// CreateProperty creates an empty property.
func (h *LayoutHandlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePropertyInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.backend.CreateProperty(ctx, in)
	if err != nil {
		respondWithBackendError(w, err, "Property")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProperty changes a property's details. A resize that would leave a
// placed structure outside the new boundary is refused with 409.
func (h *LayoutHandlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "property")
	if !ok {
		return
	}
	in, ok := decodePropertyInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	property, catalog, ok := h.load(ctx, w, id)
	if !ok {
		return
	}
	if outside := structuresOutside(property, catalog, in.Width, in.Length); len(outside) > 0 {
		writeJSON(w, http.StatusConflict, ConflictResponse{
			Error:     "Structures would fall outside the resized property",
			Conflicts: outside,
		})
		return
	}

	updated, err := h.backend.UpdateProperty(ctx, id, in)
	if err != nil {
		respondWithBackendError(w, err, "Property")
		return
	}
	h.hub.NotifyPropertyChanged(id, nil)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProperty deletes a property and its placed structures.
func (h *LayoutHandlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "property")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.backend.DeleteProperty(ctx, id); err != nil {
		respondWithBackendError(w, err, "Property")
		return
	}
	h.hub.NotifyPropertyChanged(id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func decodePropertyInput(w http.ResponseWriter, r *http.Request) (model.PropertyInput, bool) {
	var in model.PropertyInput
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

// structuresOutside names the placed structures whose footprint does not fit
// a width x length property. Structures of unknown type are ignored.
func structuresOutside(p *model.Property, catalog *model.Catalog, width, length float64) []string {
	var names []string
	for _, s := range p.Structures {
		t, ok := catalog.Lookup(s.StructureID)
		if !ok {
			continue
		}
		if !model.Footprint(t, s.Position).Within(width, length) {
			names = append(names, model.DisplayName(s, t))
		}
	}
	return names
}
