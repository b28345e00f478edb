package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestead/layout-server/internal/model"
)

var allCategories = []model.Category{
	model.CategoryStructures,
	model.CategoryGarden,
	model.CategoryLivestock,
	model.CategoryStorage,
	model.CategoryCompost,
	model.CategoryWater,
	model.CategoryOrchard,
	model.CategoryInfrastructure,
	"apiary",
}

func TestDefaultPolicyCategories(t *testing.T) {
	p := DefaultPolicy()
	assert.Len(t, p.Categories(), 8)
	assert.True(t, p.IsContainer(model.CategoryStructures))
	assert.True(t, p.IsContainer(model.CategoryOrchard))
	assert.False(t, p.IsContainer(model.CategoryGarden))
	assert.True(t, p.CanContain(model.CategoryStructures, model.CategoryGarden))
	assert.False(t, p.CanContain(model.CategoryStructures, model.CategoryCompost))
	assert.False(t, p.CanContain(model.CategoryGarden, model.CategoryGarden))
}

func TestInfrastructureOverlapsEverything(t *testing.T) {
	p := DefaultPolicy()
	for _, c := range allCategories {
		assert.True(t, p.CanOverlap(model.CategoryInfrastructure, c), "infrastructure over %s", c)
		assert.True(t, p.CanOverlap(c, model.CategoryInfrastructure), "%s under infrastructure", c)
	}
}

func TestCanOverlap(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		a, b model.Category
		want bool
	}{
		{model.CategoryGarden, model.CategoryWater, true},
		{model.CategoryWater, model.CategoryGarden, true},
		{model.CategoryLivestock, model.CategoryOrchard, true},
		{model.CategoryGarden, model.CategoryLivestock, false},
		{model.CategoryLivestock, model.CategoryGarden, false},
		{model.CategoryWater, model.CategoryStorage, false},
		{model.CategoryStorage, model.CategoryWater, false},
		{model.CategoryCompost, model.CategoryGarden, false},
		{model.CategoryStorage, model.CategoryCompost, true},
		{model.CategoryGarden, model.CategoryGarden, false},
		{model.CategoryCompost, model.CategoryCompost, false},
		{model.CategoryWater, model.CategoryWater, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+"/"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanOverlap(tt.a, tt.b))
		})
	}
}

func TestUnknownCategoryFallback(t *testing.T) {
	p := DefaultPolicy()
	assert.False(t, p.Known("apiary"))
	assert.False(t, p.CanOverlap("apiary", "apiary"))
	assert.True(t, p.CanOverlap("apiary", "greenhouse"))
	assert.True(t, p.CanOverlap("apiary", model.CategoryStorage))
	assert.False(t, p.IsContainer("apiary"))
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path uses built-in rules", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.True(t, p.Known(model.CategoryGarden))
	})

	t.Run("file replaces the table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		data := `{
			"greenhouse": {"is_container": true, "allowed_children": ["garden"], "can_overlap": [], "must_not_overlap": ["greenhouse"]},
			"garden": {"is_container": false, "allowed_children": [], "can_overlap": "any", "must_not_overlap": []}
		}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, []model.Category{"garden", "greenhouse"}, p.Categories())
		assert.True(t, p.CanContain("greenhouse", model.CategoryGarden))
		assert.True(t, p.CanOverlap(model.CategoryGarden, model.CategoryGarden))
		assert.False(t, p.Known(model.CategoryStorage))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("invalid tables", func(t *testing.T) {
		for _, data := range []string{
			`not json`,
			`{}`,
			`{"garden": {"can_overlap": "everything"}}`,
			`{"garden": {"must_not_overlap": "any"}}`,
			`{"garden": {"is_container": false, "allowed_children": ["water"]}}`,
		} {
			_, err := ParsePolicy([]byte(data))
			assert.Error(t, err, data)
		}
	})
}

func TestCategorySetJSON(t *testing.T) {
	data, err := json.Marshal(DefaultPolicy().Rule(model.CategoryInfrastructure))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"can_overlap":"any"`)

	data, err = json.Marshal(NewCategorySet(model.CategoryWater, model.CategoryGarden))
	require.NoError(t, err)
	assert.JSONEq(t, `["garden","water"]`, string(data))

	var s CategorySet
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.False(t, s.Has(model.CategoryGarden))
}

func TestRulesReturnsCopy(t *testing.T) {
	p := DefaultPolicy()
	rules := p.Rules()
	delete(rules, model.CategoryGarden)
	assert.True(t, p.Known(model.CategoryGarden))
}
