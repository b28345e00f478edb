package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestead/layout-server/internal/backend"
	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/testutil"
)

var _ Backend = (*backend.Client)(nil)

func TestListProperties(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodGet, "/api/layout/properties", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var properties []model.Property
	testutil.DecodeJSON(t, rr, &properties)
	require.Len(t, properties, 1)
	assert.Equal(t, "Maple Hollow", properties[0].Name)

	ts.backend.FailNext("GET /api/properties", http.StatusBadRequest)
	rr = ts.http.MakeRequest(http.MethodGet, "/api/layout/properties", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestCreateProperty(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodPost, "/api/layout/properties", model.PropertyInput{Name: "Back Forty", Width: 200, Length: 150})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created model.Property
	testutil.DecodeJSON(t, rr, &created)
	assert.NotZero(t, created.ID)

	stored, ok := ts.backend.Property(created.ID)
	require.True(t, ok)
	assert.Equal(t, 200.0, stored.Width)

	rr = ts.http.MakeRequest(http.MethodPost, "/api/layout/properties", model.PropertyInput{Name: "", Width: 10, Length: 10})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, ts.backend.Requests("POST /api/properties"))
}

func TestUpdatePropertyKeepsStructuresInside(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodPut, "/api/layout/properties/1", model.PropertyInput{Name: "Maple Hollow", Width: 60, Length: 60})
	require.Equal(t, http.StatusConflict, rr.Code)
	var conflict ConflictResponse
	testutil.DecodeJSON(t, rr, &conflict)
	assert.Equal(t, []string{"Tool Shed"}, conflict.Conflicts)
	assert.Zero(t, ts.backend.Requests("PUT /api/properties/1"))

	rr = ts.http.MakeRequest(http.MethodPut, "/api/layout/properties/1", model.PropertyInput{Name: "Maple Hollow", Width: 120, Length: 90, SoilType: "clay"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated model.Property
	testutil.DecodeJSON(t, rr, &updated)
	assert.Equal(t, 120.0, updated.Width)
	assert.Equal(t, "clay", updated.SoilType)
	assert.Len(t, updated.Structures, 2)

	rr = ts.http.MakeRequest(http.MethodPut, "/api/layout/properties/1", model.PropertyInput{Name: "Maple Hollow", Width: 0, Length: 90})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.http.MakeRequest(http.MethodPut, "/api/layout/properties/77", model.PropertyInput{Name: "Nowhere", Width: 10, Length: 10})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteProperty(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.http.MakeRequest(http.MethodDelete, "/api/layout/properties/1", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.http.MakeRequest(http.MethodGet, "/api/layout/properties/1/plan.svg", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.http.MakeRequest(http.MethodDelete, "/api/layout/properties/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
