package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
)

var allGrids = interaction.GridToggles{Minor: true, Major: true, SuperMajor: true}

func testView(width, length float64) interaction.View {
	catalog := model.NewCatalog([]model.StructureType{
		{ID: 1, Name: "Shed", Category: model.CategoryStorage, Width: 6, Length: 4, Icon: "S"},
		{ID: 2, Name: "Garden bed", Category: model.CategoryGarden, Width: 4, Length: 8},
	})
	return interaction.View{
		Property: &model.Property{
			ID: 1, Name: "Home", Width: width, Length: length,
			Structures: []model.PlacedStructure{
				{ID: 10, StructureID: 1, Position: model.Position{X: 5, Y: 5}},
				{ID: 11, StructureID: 2, Name: "Tomatoes", Position: model.Position{X: 20, Y: 20}},
				{ID: 12, StructureID: 99, Position: model.Position{X: 1, Y: 1}},
			},
		},
		Catalog: catalog,
		Grid:    allGrids,
	}
}

func countTier(lines []GridLine, tier GridTier) int {
	n := 0
	for _, l := range lines {
		if l.Tier == tier {
			n++
		}
	}
	return n
}

func TestBuildSceneRequiresProperty(t *testing.T) {
	_, err := BuildScene(interaction.View{}, DefaultOptions())
	assert.Error(t, err)

	v := testView(0, 10)
	_, err = BuildScene(v, DefaultOptions())
	assert.Error(t, err)
}

func TestGridTierGating(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name          string
		width, length float64
		grid          interaction.GridToggles
		minor, major  int
		superMajor    int
	}{
		{"small property", 50, 40, allGrids, 49 + 39, 4 + 3, 0},
		{"medium property", 150, 80, allGrids, 149 + 79, 14 + 7, 2 + 1},
		{"large property", 300, 100, allGrids, 0, 29 + 9, 5 + 1},
		{"boundary sizes", 200, 100, allGrids, 199 + 99, 19 + 9, 3 + 1},
		{"toggles off", 150, 80, interaction.GridToggles{}, 0, 0, 0},
		{"major only", 150, 80, interaction.GridToggles{Major: true}, 0, 14 + 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testView(tt.width, tt.length)
			v.Grid = tt.grid
			s, err := BuildScene(v, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.minor, countTier(s.Grid, TierMinor))
			assert.Equal(t, tt.major, countTier(s.Grid, TierMajor))
			assert.Equal(t, tt.superMajor, countTier(s.Grid, TierSuperMajor))
		})
	}
}

func TestStaticStructuresUseDefaultColors(t *testing.T) {
	s, err := BuildScene(testView(50, 40), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Structures, 2, "structures with unknown types are not drawn")
	shed := s.Structures[0]
	assert.Equal(t, "Shed", shed.Label)
	assert.Equal(t, StatusDefault, shed.Status)
	assert.Equal(t, colorDefaultFill, shed.Fill)
	assert.Equal(t, colorDefaultStroke, shed.Stroke)
	assert.Equal(t, StrokeStatic, shed.StrokeWidth)
	assert.Equal(t, 24+5*10.0, shed.Rect.X)
	assert.Equal(t, 60.0, shed.Rect.Width)

	assert.Equal(t, "Tomatoes", s.Structures[1].Label)
	assert.Nil(t, s.Ghost)
	assert.Nil(t, s.Tooltip)
}

func TestDraggedStructureColors(t *testing.T) {
	tests := []struct {
		name   string
		result *layout.ValidationResult
		status Status
		fill   Color
	}{
		{"valid", &layout.ValidationResult{IsValid: true}, StatusValid, colorValid},
		{"contained", &layout.ValidationResult{IsValid: true, IsContained: true}, StatusContained, colorContained},
		{"conflict", &layout.ValidationResult{Conflicts: []string{"overlaps with Shed"}}, StatusConflict, colorConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testView(50, 40)
			v.Drag = &interaction.DragView{
				Source:      interaction.SourcePlaced,
				PlacedID:    11,
				StructureID: 2,
				Name:        "Tomatoes",
				Position:    model.Position{X: 20, Y: 20},
				Width:       4,
				Length:      8,
				InBounds:    true,
				Cursor:      &interaction.Point{X: 100, Y: 50},
				Result:      tt.result,
			}
			s, err := BuildScene(v, DefaultOptions())
			require.NoError(t, err)

			dragged := s.Structures[1]
			assert.True(t, dragged.Dragging)
			assert.Equal(t, tt.status, dragged.Status)
			assert.Equal(t, tt.fill, dragged.Fill)
			assert.Equal(t, StrokeDragging, dragged.StrokeWidth)
			assert.Equal(t, StrokeStatic, s.Structures[0].StrokeWidth)

			require.NotNil(t, s.Tooltip)
			assert.Equal(t, 24+100+12.0, s.Tooltip.X)
			assert.Contains(t, s.Tooltip.Text, "(20, 20)")
		})
	}
}

func TestPaletteGhost(t *testing.T) {
	v := testView(50, 40)
	v.Drag = &interaction.DragView{
		Source:      interaction.SourcePalette,
		StructureID: 1,
		Name:        "Shed",
		Position:    model.Position{X: 47, Y: 0},
		Width:       6,
		Length:      4,
		InBounds:    false,
	}
	s, err := BuildScene(v, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, s.Ghost)
	assert.Equal(t, StatusConflict, s.Ghost.Status)
	assert.Equal(t, "S", s.Ghost.Icon)
	assert.Equal(t, StrokeDragging, s.Ghost.StrokeWidth)

	require.NotNil(t, s.Tooltip)
	assert.Equal(t, 24+47*10.0, s.Tooltip.X, "tooltip follows the footprint when no cursor is known")

	v.Drag.InBounds = true
	v.Drag.Result = &layout.ValidationResult{IsValid: true}
	s, err = BuildScene(v, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, StatusValid, s.Ghost.Status)
}

func TestRulersAndLegend(t *testing.T) {
	s, err := BuildScene(testView(50, 40), DefaultOptions())
	require.NoError(t, err)

	var xs, ys []float64
	for _, tick := range s.Ticks {
		if tick.Axis == AxisX {
			xs = append(xs, tick.Feet)
		} else {
			ys = append(ys, tick.Feet)
		}
	}
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50}, xs)
	assert.Equal(t, []float64{0, 10, 20, 30, 40}, ys)
	assert.Equal(t, "50'", s.Ticks[5].Label)

	assert.Equal(t, 2000.0, s.Legend.AreaSqFt)
	assert.InDelta(t, 0.0459, s.Legend.AreaAcres, 0.0001)
	assert.Contains(t, s.Legend.Text, "2000 sq ft")
	assert.Contains(t, s.Legend.Text, "0.05 acres")
	assert.Equal(t, "1 ft = 10 px", s.Legend.Scale)
}

func TestRenderSVG(t *testing.T) {
	v := testView(50, 40)
	v.Property.Structures[1].Name = `<Bob's & shed>`
	v.Drag = &interaction.DragView{
		Source: interaction.SourcePalette, StructureID: 1, Name: "Shed",
		Position: model.Position{X: 30, Y: 30}, Width: 6, Length: 4, InBounds: true,
		Result: &layout.ValidationResult{IsValid: true},
	}
	s, err := BuildScene(v, DefaultOptions())
	require.NoError(t, err)

	out, err := RenderSVG(s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<?xml`))
	assert.True(t, strings.HasSuffix(out, `</svg>`))
	assert.Contains(t, out, `width="525"`)
	assert.Equal(t, 88, strings.Count(out, `class="grid-minor"`))
	assert.Equal(t, 7, strings.Count(out, `class="grid-major"`))
	assert.Contains(t, out, `data-id="10"`)
	assert.Contains(t, out, `class="ghost valid"`)
	assert.Contains(t, out, "&lt;Bob&#39;s &amp; shed&gt;")
	assert.NotContains(t, out, "<Bob's")
	assert.Contains(t, out, colorValid.Hex())

	_, err = RenderSVG(nil)
	assert.Error(t, err)
}

func TestRenderPDF(t *testing.T) {
	s, err := BuildScene(testView(120, 80), DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, s))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)

	assert.Error(t, RenderPDF(&buf, nil))
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#4caf50", colorValid.Hex())
	assert.Equal(t, "#000000", Color{}.Hex())
}
