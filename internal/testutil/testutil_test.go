package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/homestead/layout-server/internal/model"
)

func TestRandomString(t *testing.T) {
	str := RandomString(10)
	if len(str) != 10 {
		t.Errorf("Expected string length 10, got %d", len(str))
	}
	if !strings.HasPrefix(RandomPropertyName(), "Homestead ") {
		t.Error("Expected property name prefix")
	}
}

func TestCatalogCoversCategories(t *testing.T) {
	seen := make(map[model.Category]bool)
	ids := make(map[int64]bool)
	for _, st := range TestCatalog() {
		if ids[st.ID] {
			t.Errorf("Duplicate catalog id %d", st.ID)
		}
		ids[st.ID] = true
		seen[st.Category] = true
	}
	for _, c := range []model.Category{
		model.CategoryStructures, model.CategoryGarden, model.CategoryLivestock, model.CategoryStorage,
		model.CategoryWater, model.CategoryOrchard, model.CategoryInfrastructure,
	} {
		if !seen[c] {
			t.Errorf("Catalog has no %s entry", c)
		}
	}
}

func get(t *testing.T, url string, target interface{}) int {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if target != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestFakeBackend(t *testing.T) {
	b := NewFakeBackend(TestCatalog())
	defer b.Close()

	p := TestProperty(1, 100, 80)
	p.Structures = []model.PlacedStructure{Placed(10, 0, TypeShed, 5, 5)}
	b.AddProperty(p)

	var got model.Property
	if status := get(t, b.URL()+"/api/properties/1", &got); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(got.Structures) != 1 || got.Structures[0].PropertyID != 1 {
		t.Errorf("Unexpected structures %+v", got.Structures)
	}

	if status := get(t, b.URL()+"/api/properties/2", nil); status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}

	b.FailNext("GET /api/structure-types", http.StatusServiceUnavailable)
	if status := get(t, b.URL()+"/api/structure-types", nil); status != http.StatusServiceUnavailable {
		t.Errorf("Expected injected 503, got %d", status)
	}
	var types []model.StructureType
	if status := get(t, b.URL()+"/api/structure-types", &types); status != http.StatusOK {
		t.Errorf("Expected 200 after failure drained, got %d", status)
	}
	if len(types) != len(TestCatalog()) {
		t.Errorf("Expected %d types, got %d", len(TestCatalog()), len(types))
	}
	if n := b.Requests("GET /api/structure-types"); n != 2 {
		t.Errorf("Expected 2 requests, got %d", n)
	}
}

func TestHTTPTestHelper(t *testing.T) {
	h := NewHTTPTestHelper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"method": r.Method, "trace": r.Header.Get("X-Trace")})
	}))

	rr := h.MakeRequestWithHeaders(http.MethodPost, "/", map[string]int{"a": 1}, map[string]string{"X-Trace": "abc"})
	var body map[string]string
	DecodeJSON(t, rr, &body)
	if body["method"] != http.MethodPost || body["trace"] != "abc" {
		t.Errorf("Unexpected body %v", body)
	}
}
