package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/homestead/layout-server/internal/backend"
	"github.com/homestead/layout-server/internal/config"
	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/performance"
	"github.com/homestead/layout-server/internal/render"
)

// SessionStore is what a designer session needs from the homestead REST
// backend.
type SessionStore interface {
	interaction.Store
	ListProperties(ctx context.Context) ([]model.Property, error)
}

// Backend is what the HTTP handlers need from the homestead REST backend.
type Backend interface {
	SessionStore
	HealthCheck(ctx context.Context) error

	CreateProperty(ctx context.Context, in model.PropertyInput) (*model.Property, error)
	UpdateProperty(ctx context.Context, id int64, in model.PropertyInput) (*model.Property, error)
	DeleteProperty(ctx context.Context, id int64) error

	GetStructureType(ctx context.Context, id int64) (*model.StructureType, error)
	CreateStructureType(ctx context.Context, in model.StructureTypeInput) (*model.StructureType, error)
	UpdateStructureType(ctx context.Context, id int64, in model.StructureTypeInput) (*model.StructureType, error)
	DeleteStructureType(ctx context.Context, id int64) error
	ListPlacedStructures(ctx context.Context, propertyID int64) ([]model.PlacedStructure, error)
}

// LayoutHandlers serves the HTTP layout endpoints.
type LayoutHandlers struct {
	backend       Backend
	validator     *layout.Validator
	hub           *WebSocketHub
	renderOptions render.Options
	profiler      *performance.Profiler
	timeout       time.Duration
}

// NewLayoutHandlers creates the HTTP layout handlers. Property changes are
// announced to designer sessions through hub.
func NewLayoutHandlers(cfg *config.Config, b Backend, validator *layout.Validator, hub *WebSocketHub, profiler *performance.Profiler) *LayoutHandlers {
	return &LayoutHandlers{
		backend:       b,
		validator:     validator,
		hub:           hub,
		renderOptions: renderOptions(cfg),
		profiler:      profiler,
		timeout:       messageTimeout,
	}
}

// ConflictResponse is returned with 409 when a change would break the layout.
type ConflictResponse struct {
	Error     string   `json:"error"`
	Conflicts []string `json:"conflicts"`
}

// ValidateRequest is the body of POST /api/layout/validate.
type ValidateRequest struct {
	PropertyID  int64          `json:"property_id"`
	StructureID int64          `json:"structure_id"`
	Position    model.Position `json:"position"`
	Name        string         `json:"name,omitempty"`
	ExcludeID   *int64         `json:"exclude_id,omitempty"`
}

// ValidateResponse adds the boundary check to the rule result.
type ValidateResponse struct {
	layout.ValidationResult
	InBounds bool `json:"in_bounds"`
}

// HealthCheck reports the server's own health and the backend's.
func (h *LayoutHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := map[string]string{"status": "ok", "service": "homestead-layout-server", "backend": "ok"}
	if err := h.backend.HealthCheck(ctx); err != nil {
		log.Printf("Backend health check failed: %v", err)
		resp["status"] = "degraded"
		resp["backend"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRules returns the active collision rule table.
func (h *LayoutHandlers) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.validator.Policy().Rules())
}

// ValidatePlacement checks a candidate placement against the property's
// current structures.
func (h *LayoutHandlers) ValidatePlacement(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PropertyID <= 0 || req.StructureID <= 0 {
		respondWithError(w, http.StatusBadRequest, "property_id and structure_id are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	property, catalog, ok := h.load(ctx, w, req.PropertyID)
	if !ok {
		return
	}

	resp := ValidateResponse{}
	t, known := catalog.Lookup(req.StructureID)
	if !known {
		resp.ValidationResult = layout.ValidationResult{Conflicts: []string{layout.ConflictUnknownType}}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	done := h.profiler.Start(performance.MetricValidate)
	resp.ValidationResult = h.validator.Validate(layout.CandidateFor(t, req.Position, req.Name, req.ExcludeID), property.Structures, catalog)
	done.End()
	resp.InBounds = model.Footprint(t, req.Position).Within(property.Width, property.Length)
	writeJSON(w, http.StatusOK, resp)
}

// PlanSVG renders a property's plan as SVG.
func (h *LayoutHandlers) PlanSVG(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.planScene(w, r)
	if !ok {
		return
	}

	done := h.profiler.Start(performance.MetricRenderSVG)
	svg, err := render.RenderSVG(scene)
	done.End()
	if err != nil {
		log.Printf("Failed to render SVG: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render plan")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(svg)); err != nil {
		log.Printf("Failed to write SVG: %v", err)
	}
}

// PlanPDF renders a property's plan as a one page PDF.
func (h *LayoutHandlers) PlanPDF(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.planScene(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	done := h.profiler.Start(performance.MetricRenderPDF)
	err := render.RenderPDF(&buf, scene)
	done.End()
	if err != nil {
		log.Printf("Failed to render PDF: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render plan")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="property-%s-plan.pdf"`, mux.Vars(r)["id"]))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write PDF: %v", err)
	}
}

// Metrics returns the profiler's JSON report.
func (h *LayoutHandlers) Metrics(w http.ResponseWriter, r *http.Request) {
	data, err := h.profiler.JSONReport()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write metrics: %v", err)
	}
}

func (h *LayoutHandlers) planScene(w http.ResponseWriter, r *http.Request) (*render.Scene, bool) {
	id, ok := pathID(w, r, "property")
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	property, catalog, ok := h.load(ctx, w, id)
	if !ok {
		return nil, false
	}

	grid := interaction.GridToggles{Minor: true, Major: true, SuperMajor: true}
	q := r.URL.Query()
	for name, toggle := range map[string]*bool{"minor": &grid.Minor, "major": &grid.Major, "super_major": &grid.SuperMajor} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s grid toggle", name))
				return nil, false
			}
			*toggle = b
		}
	}

	done := h.profiler.Start(performance.MetricBuildScene)
	scene, err := render.BuildScene(interaction.View{Property: property, Catalog: catalog, Grid: grid}, h.renderOptions)
	done.End()
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return scene, true
}

// load fetches a property and the catalog, writing an error response on failure.
func (h *LayoutHandlers) load(ctx context.Context, w http.ResponseWriter, propertyID int64) (*model.Property, *model.Catalog, bool) {
	property, err := h.backend.GetProperty(ctx, propertyID)
	if err != nil {
		if backend.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "Property not found")
			return nil, nil, false
		}
		log.Printf("Failed to load property %d: %v", propertyID, err)
		respondWithError(w, http.StatusBadGateway, "Failed to load property")
		return nil, nil, false
	}
	types, err := h.backend.ListStructureTypes(ctx)
	if err != nil {
		log.Printf("Failed to load structure types: %v", err)
		respondWithError(w, http.StatusBadGateway, "Failed to load structure types")
		return nil, nil, false
	}
	return property, model.NewCatalog(types), true
}

// respondWithBackendError maps a failed backend call to a response.
func respondWithBackendError(w http.ResponseWriter, err error, what string) {
	if backend.IsNotFound(err) {
		respondWithError(w, http.StatusNotFound, what+" not found")
		return
	}
	log.Printf("Backend call for %s failed: %v", strings.ToLower(what), err)
	respondWithError(w, http.StatusBadGateway, "Backend request failed")
}

// pathID parses the {id} route variable, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+what+" id")
		return 0, false
	}
	return id, true
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
