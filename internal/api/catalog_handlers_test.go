package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/testutil"
)

func TestGetCatalog(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodGet, "/api/layout/catalog", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CatalogResponse
	testutil.DecodeJSON(t, rr, &resp)
	assert.Len(t, resp.Categories, 8)
	assert.Contains(t, resp.Categories, model.CategoryOrchard)
	require.Len(t, resp.Types, len(testutil.TestCatalog()))
	assert.Equal(t, testutil.TypeHouse, resp.Types[0].ID)
	for _, e := range resp.Types {
		assert.True(t, e.HasRule, e.Name)
	}
}

func TestCatalogEntryLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodGet, "/api/layout/catalog/3", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var shed CatalogEntry
	testutil.DecodeJSON(t, rr, &shed)
	assert.Equal(t, "Tool Shed", shed.Name)
	assert.Equal(t, 10.0, shed.Width)

	rr = ts.http.MakeRequest(http.MethodGet, "/api/layout/catalog/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.http.MakeRequest(http.MethodPost, "/api/layout/catalog", model.StructureTypeInput{Name: "Hive", Category: "apiary", Width: 0, Length: 2})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.http.MakeRequest(http.MethodPost, "/api/layout/catalog", model.StructureTypeInput{Name: "Hive", Category: "apiary", Width: 2, Length: 2})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var hive CatalogEntry
	testutil.DecodeJSON(t, rr, &hive)
	assert.NotZero(t, hive.ID)
	assert.False(t, hive.HasRule, "apiary has no collision rule")

	rr = ts.http.MakeRequest(http.MethodPut, fmt.Sprintf("/api/layout/catalog/%d", hive.ID), model.StructureTypeInput{Name: "Hive", Category: model.CategoryLivestock, Width: 3, Length: 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	testutil.DecodeJSON(t, rr, &hive)
	assert.Equal(t, 3.0, hive.Width)
	assert.True(t, hive.HasRule)

	rr = ts.http.MakeRequest(http.MethodDelete, fmt.Sprintf("/api/layout/catalog/%d", hive.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.http.MakeRequest(http.MethodGet, fmt.Sprintf("/api/layout/catalog/%d", hive.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteCatalogEntryInUse(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodDelete, "/api/layout/catalog/3", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	var conflict ConflictResponse
	testutil.DecodeJSON(t, rr, &conflict)
	assert.Equal(t, []string{"Maple Hollow"}, conflict.Conflicts)
	assert.Zero(t, ts.backend.Requests("DELETE /api/structure-types/3"))

	rr = ts.http.MakeRequest(http.MethodDelete, "/api/layout/catalog/2", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, ts.backend.Requests("DELETE /api/structure-types/2"))

	ts.backend.FailNext("GET /api/placed-structures", http.StatusInternalServerError)
	rr = ts.http.MakeRequest(http.MethodDelete, "/api/layout/catalog/4", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
