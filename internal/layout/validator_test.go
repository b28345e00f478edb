package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestead/layout-server/internal/model"
)

const (
	typeCoop int64 = iota + 1
	typeBed
	typePen
	typeShed
	typePond
	typePath
	typeCompost
	typeOrchard
	typeHive
	typeBarn
)

func testCatalog() *model.Catalog {
	return model.NewCatalog([]model.StructureType{
		{ID: typeCoop, Name: "Coop", Category: model.CategoryStructures, Width: 10, Length: 10},
		{ID: typeBed, Name: "Garden bed", Category: model.CategoryGarden, Width: 5, Length: 5},
		{ID: typePen, Name: "Pig pen", Category: model.CategoryLivestock, Width: 8, Length: 8},
		{ID: typeShed, Name: "Shed", Category: model.CategoryStorage, Width: 6, Length: 6},
		{ID: typePond, Name: "Pond", Category: model.CategoryWater, Width: 6, Length: 4},
		{ID: typePath, Name: "Path", Category: model.CategoryInfrastructure, Width: 2, Length: 40},
		{ID: typeCompost, Name: "Compost bin", Category: model.CategoryCompost, Width: 4, Length: 4},
		{ID: typeOrchard, Name: "Orchard", Category: model.CategoryOrchard, Width: 30, Length: 30},
		{ID: typeHive, Name: "Hive", Category: "apiary", Width: 2, Length: 2},
		{ID: typeBarn, Name: "Barn", Category: model.CategoryStructures, Width: 20, Length: 20},
	})
}

func placed(id, structureID int64, x, y float64) model.PlacedStructure {
	return model.PlacedStructure{ID: id, PropertyID: 1, StructureID: structureID, Position: model.Position{X: x, Y: y}}
}

func candidate(t *testing.T, catalog *model.Catalog, structureID int64, x, y float64) Candidate {
	t.Helper()
	st, ok := catalog.Lookup(structureID)
	require.True(t, ok)
	return CandidateFor(st, model.Position{X: x, Y: y}, "", nil)
}

func TestValidateCoopScenario(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeCoop, 0, 0)}

	res := v.Validate(candidate(t, catalog, typeCoop, 5, 5), existing, catalog)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Conflicts, 1)

	res = v.Validate(candidate(t, catalog, typeBed, 20, 20), existing, catalog)
	assert.True(t, res.IsValid)
	assert.False(t, res.IsContained)
	assert.Empty(t, res.Conflicts)
}

func TestValidateContainerScenario(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeBarn, 0, 0)}

	res := v.Validate(candidate(t, catalog, typeBed, 2, 2), existing, catalog)
	assert.True(t, res.IsValid)
	assert.True(t, res.IsContained)

	res = v.Validate(candidate(t, catalog, typeBed, 18, 18), existing, catalog)
	assert.False(t, res.IsValid)
	assert.False(t, res.IsContained)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "must be fully inside or outside Barn", res.Conflicts[0])
}

func TestValidateDisallowedChild(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeBarn, 0, 0)}

	res := v.Validate(candidate(t, catalog, typeCompost, 2, 2), existing, catalog)
	assert.False(t, res.IsValid)
	require.Len(t, res.Conflicts, 1)
	assert.Contains(t, res.Conflicts[0], "Barn")
	assert.Contains(t, res.Conflicts[0], "Compost bin")
}

func TestValidateCandidateContainer(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeBed, 5, 5)}

	res := v.Validate(candidate(t, catalog, typeBarn, 0, 0), existing, catalog)
	assert.True(t, res.IsValid)
	assert.True(t, res.IsContained)

	res = v.Validate(candidate(t, catalog, typeBarn, 8, 8), existing, catalog)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"must fully contain or stay clear of Garden bed"}, res.Conflicts)

	existing = []model.PlacedStructure{placed(2, typeCompost, 5, 5)}
	res = v.Validate(candidate(t, catalog, typeBarn, 0, 0), existing, catalog)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Barn cannot contain Compost bin"}, res.Conflicts)
}

func TestValidateSameCategoryOverlapIsForbidden(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)

	for _, id := range []int64{typeBed, typePen, typeShed, typePond, typeCompost, typeHive} {
		st, _ := catalog.Lookup(id)
		t.Run(st.Name, func(t *testing.T) {
			existing := []model.PlacedStructure{placed(1, id, 10, 10)}
			res := v.Validate(candidate(t, catalog, id, 11, 11), existing, catalog)
			assert.False(t, res.IsValid)
			assert.Equal(t, []string{"overlaps with " + st.Name}, res.Conflicts)
		})
	}
}

func TestValidateOverlapPolicy(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)

	tests := []struct {
		name     string
		existing model.PlacedStructure
		cand     int64
		want     bool
	}{
		{"path over shed", placed(1, typeShed, 10, 10), typePath, true},
		{"shed over path", placed(1, typePath, 10, 0), typeShed, true},
		{"pond in garden", placed(1, typeBed, 10, 10), typePond, true},
		{"pen next to garden", placed(1, typeBed, 10, 10), typePen, false},
		{"shed into pond", placed(1, typePond, 10, 10), typeShed, false},
		{"hive on shed", placed(1, typeShed, 10, 10), typeHive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(candidate(t, catalog, tt.cand, 11, 11), []model.PlacedStructure{tt.existing}, catalog)
			assert.Equal(t, tt.want, res.IsValid, res.Conflicts)
			assert.False(t, res.IsContained)
		})
	}
}

func TestValidateTouchingEdgesIsValid(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeShed, 0, 0)}

	res := v.Validate(candidate(t, catalog, typeShed, 6, 0), existing, catalog)
	assert.True(t, res.IsValid)
	res = v.Validate(candidate(t, catalog, typeShed, 6, 6), existing, catalog)
	assert.True(t, res.IsValid)
}

func TestValidateExcludesSelf(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeShed, 0, 0), placed(2, typeShed, 20, 20)}

	self := int64(1)
	c := candidate(t, catalog, typeShed, 2, 2)
	c.ExcludeID = &self
	assert.True(t, v.Validate(c, existing, catalog).IsValid)

	c.X, c.Y = 22, 22
	res := v.Validate(c, existing, catalog)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Conflicts, 1)
}

func TestValidateUnknownTypes(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)

	existing := []model.PlacedStructure{placed(1, typeShed, 0, 0), placed(2, typeShed, 1, 1)}
	res := v.Validate(Candidate{StructureID: 404, X: 0, Y: 0, Width: 5, Height: 5}, existing, catalog)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{ConflictUnknownType}, res.Conflicts)

	existing = []model.PlacedStructure{placed(1, 999, 0, 0)}
	res = v.Validate(candidate(t, catalog, typeShed, 0, 0), existing, catalog)
	assert.True(t, res.IsValid, "placed structures with unknown types are skipped")
}

func TestValidateUsesCustomNamesAndOrder(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)

	first := placed(1, typeShed, 0, 0)
	first.Name = "Tool shed"
	second := placed(2, typeShed, 4, 4)
	existing := []model.PlacedStructure{first, second}

	st, _ := catalog.Lookup(typeShed)
	c := CandidateFor(st, model.Position{X: 3, Y: 3}, "Feed shed", nil)
	res := v.Validate(c, existing, catalog)
	assert.Equal(t, []string{"overlaps with Tool shed", "overlaps with Shed"}, res.Conflicts)
}

func TestValidateContainedWithOtherConflict(t *testing.T) {
	catalog := testCatalog()
	v := NewValidator(nil)
	existing := []model.PlacedStructure{placed(1, typeBarn, 0, 0), placed(2, typeBed, 2, 2)}

	res := v.Validate(candidate(t, catalog, typeBed, 3, 3), existing, catalog)
	assert.False(t, res.IsValid)
	assert.False(t, res.IsContained, "contained is only reported for valid placements")
	assert.Equal(t, []string{"overlaps with Garden bed"}, res.Conflicts)
}
