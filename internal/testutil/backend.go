package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/homestead/layout-server/internal/model"
)

// FakeBackend is an in-memory homestead REST backend served over httptest.
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	properties map[int64]model.Property
	types      map[int64]model.StructureType
	placed     map[int64]model.PlacedStructure
	nextID     int64
	failures   map[string][]int
	requests   map[string]int
}

// NewFakeBackend starts a fake backend seeded with catalog. Call Close when done.
func NewFakeBackend(catalog []model.StructureType) *FakeBackend {
	b := &FakeBackend{
		properties: make(map[int64]model.Property),
		types:      make(map[int64]model.StructureType),
		placed:     make(map[int64]model.PlacedStructure),
		nextID:     1000,
		failures:   make(map[string][]int),
		requests:   make(map[string]int),
	}
	for _, t := range catalog {
		b.types[t.ID] = t
	}

	r := mux.NewRouter()
	r.Use(b.countAndFail)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "homestead-backend"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/properties", b.listProperties).Methods(http.MethodGet)
	r.HandleFunc("/api/properties", b.createProperty).Methods(http.MethodPost)
	r.HandleFunc("/api/properties/{id:[0-9]+}", b.getProperty).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{id:[0-9]+}", b.updateProperty).Methods(http.MethodPut)
	r.HandleFunc("/api/properties/{id:[0-9]+}", b.deleteProperty).Methods(http.MethodDelete)

	r.HandleFunc("/api/structure-types", b.listTypes).Methods(http.MethodGet)
	r.HandleFunc("/api/structure-types", b.createType).Methods(http.MethodPost)
	r.HandleFunc("/api/structure-types/{id:[0-9]+}", b.getType).Methods(http.MethodGet)
	r.HandleFunc("/api/structure-types/{id:[0-9]+}", b.updateType).Methods(http.MethodPut)
	r.HandleFunc("/api/structure-types/{id:[0-9]+}", b.deleteType).Methods(http.MethodDelete)

	r.HandleFunc("/api/placed-structures", b.listPlaced).Methods(http.MethodGet)
	r.HandleFunc("/api/placed-structures", b.createPlaced).Methods(http.MethodPost)
	r.HandleFunc("/api/placed-structures/{id:[0-9]+}", b.updatePlaced).Methods(http.MethodPut)
	r.HandleFunc("/api/placed-structures/{id:[0-9]+}", b.deletePlaced).Methods(http.MethodDelete)

	b.Server = httptest.NewServer(r)
	return b
}

// URL returns the fake backend's base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// Close shuts the server down.
func (b *FakeBackend) Close() {
	b.Server.Close()
}

// AddProperty stores p and its structures.
func (b *FakeBackend) AddProperty(p model.Property) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range p.Structures {
		s.PropertyID = p.ID
		b.placed[s.ID] = s
	}
	p.Structures = nil
	b.properties[p.ID] = p
}

// Property returns the stored property with its structures.
func (b *FakeBackend) Property(id int64) (model.Property, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.properties[id]
	if !ok {
		return model.Property{}, false
	}
	return b.withStructures(p), true
}

// FailNext makes the next requests matching "METHOD /path" answer with the
// given statuses, one per request.
func (b *FakeBackend) FailNext(route string, statuses ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], statuses...)
}

// Requests returns how many requests matched "METHOD /path".
func (b *FakeBackend) Requests(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

func (b *FakeBackend) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests[route]++
		var status int
		if queue := b.failures[route]; len(queue) > 0 {
			status = queue[0]
			b.failures[route] = queue[1:]
		}
		b.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) withStructures(p model.Property) model.Property {
	p.Structures = []model.PlacedStructure{}
	for _, s := range b.placed {
		if s.PropertyID == p.ID {
			p.Structures = append(p.Structures, s)
		}
	}
	sort.Slice(p.Structures, func(i, j int) bool { return p.Structures[i].ID < p.Structures[j].ID })
	return p
}

func (b *FakeBackend) newID() int64 {
	b.nextID++
	return b.nextID
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (b *FakeBackend) listProperties(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Property, 0, len(b.properties))
	for _, p := range b.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) getProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.properties[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, b.withStructures(p))
}

func (b *FakeBackend) createProperty(w http.ResponseWriter, r *http.Request) {
	var in model.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := propertyFromInput(b.newID(), in)
	b.properties[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (b *FakeBackend) updateProperty(w http.ResponseWriter, r *http.Request) {
	var in model.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.properties[id]; !ok {
		notFound(w)
		return
	}
	p := propertyFromInput(id, in)
	b.properties[id] = p
	writeJSON(w, http.StatusOK, b.withStructures(p))
}

func (b *FakeBackend) deleteProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.properties[id]; !ok {
		notFound(w)
		return
	}
	delete(b.properties, id)
	for sid, s := range b.placed {
		if s.PropertyID == id {
			delete(b.placed, sid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func propertyFromInput(id int64, in model.PropertyInput) model.Property {
	return model.Property{
		ID: id, Name: in.Name, Width: in.Width, Length: in.Length, Address: in.Address,
		Latitude: in.Latitude, Longitude: in.Longitude, SoilType: in.SoilType, Slope: in.Slope,
	}
}

func (b *FakeBackend) listTypes(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.StructureType, 0, len(b.types))
	for _, t := range b.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) getType(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.types[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *FakeBackend) createType(w http.ResponseWriter, r *http.Request) {
	var in model.StructureTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeFromInput(b.newID(), in)
	b.types[t.ID] = t
	writeJSON(w, http.StatusCreated, t)
}

func (b *FakeBackend) updateType(w http.ResponseWriter, r *http.Request) {
	var in model.StructureTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.types[id]; !ok {
		notFound(w)
		return
	}
	t := typeFromInput(id, in)
	b.types[id] = t
	writeJSON(w, http.StatusOK, t)
}

func (b *FakeBackend) deleteType(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.types[id]; !ok {
		notFound(w)
		return
	}
	delete(b.types, id)
	w.WriteHeader(http.StatusNoContent)
}

func typeFromInput(id int64, in model.StructureTypeInput) model.StructureType {
	return model.StructureType{
		ID: id, Name: in.Name, Category: in.Category, Width: in.Width, Length: in.Length,
		Icon: in.Icon, Cost: in.Cost, Description: in.Description,
	}
}

func (b *FakeBackend) listPlaced(w http.ResponseWriter, r *http.Request) {
	propertyID, _ := strconv.ParseInt(r.URL.Query().Get("property_id"), 10, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.PlacedStructure{}
	for _, s := range b.placed {
		if propertyID == 0 || s.PropertyID == propertyID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) createPlaced(w http.ResponseWriter, r *http.Request) {
	var in model.PlacedStructureInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.properties[in.PropertyID]; !ok {
		notFound(w)
		return
	}
	s := placedFromInput(b.newID(), in)
	b.placed[s.ID] = s
	writeJSON(w, http.StatusCreated, s)
}

func (b *FakeBackend) updatePlaced(w http.ResponseWriter, r *http.Request) {
	var in model.PlacedStructureInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.placed[id]; !ok {
		notFound(w)
		return
	}
	s := placedFromInput(id, in)
	b.placed[id] = s
	writeJSON(w, http.StatusOK, s)
}

func (b *FakeBackend) deletePlaced(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	if _, ok := b.placed[id]; !ok {
		notFound(w)
		return
	}
	delete(b.placed, id)
	w.WriteHeader(http.StatusNoContent)
}

func placedFromInput(id int64, in model.PlacedStructureInput) model.PlacedStructure {
	return model.PlacedStructure{
		ID: id, PropertyID: in.PropertyID, StructureID: in.StructureID, Name: in.Name,
		Position: in.Position, Rotation: in.Rotation, Notes: in.Notes, Cost: in.Cost, BuiltDate: in.BuiltDate,
	}
}
