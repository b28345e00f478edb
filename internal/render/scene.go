// Package render turns a designer view into a declarative scene and draws it
// as SVG for the live canvas or as a PDF plan for printing. It makes no
// decisions of its own beyond mapping view state to shapes and colors.
package render

import (
	"fmt"
	"log"
	"math"

	"github.com/homestead/layout-server/internal/geometry"
	"github.com/homestead/layout-server/internal/interaction"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/model"
)

const sqFtPerAcre = 43560.0

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	colorBackground    = Color{R: 244, G: 248, B: 236}
	colorBoundary      = Color{R: 60, G: 60, B: 60}
	colorGridMinor     = Color{R: 226, G: 232, B: 218}
	colorGridMajor     = Color{R: 190, G: 200, B: 180}
	colorGridSuper     = Color{R: 130, G: 145, B: 120}
	colorRuler         = Color{R: 90, G: 90, B: 90}
	colorDefaultFill   = Color{R: 200, G: 200, B: 200}
	colorDefaultStroke = Color{R: 33, G: 150, B: 243}
	colorValid         = Color{R: 76, G: 175, B: 80}
	colorContained     = Color{R: 255, G: 235, B: 59}
	colorConflict      = Color{R: 244, G: 67, B: 54}
	colorTooltip       = Color{R: 33, G: 33, B: 33}
)

// Status is the validation-driven coloring of a structure.
type Status string

const (
	StatusDefault   Status = "default"
	StatusValid     Status = "valid"
	StatusContained Status = "contained"
	StatusConflict  Status = "conflict"
)

// StatusOf maps a validation result to a status. A nil result is default.
func StatusOf(res *layout.ValidationResult) Status {
	switch {
	case res == nil:
		return StatusDefault
	case !res.IsValid:
		return StatusConflict
	case res.IsContained:
		return StatusContained
	default:
		return StatusValid
	}
}

// Colors returns the fill and stroke for a status.
func (s Status) Colors() (fill, stroke Color) {
	switch s {
	case StatusValid:
		return colorValid, colorValid
	case StatusContained:
		return colorContained, colorContained
	case StatusConflict:
		return colorConflict, colorConflict
	default:
		return colorDefaultFill, colorDefaultStroke
	}
}

// Stroke widths in pixels.
const (
	StrokeStatic   = 1.0
	StrokeDragging = 3.0
)

// GridTier names a grid spacing.
type GridTier string

const (
	TierMinor      GridTier = "minor"
	TierMajor      GridTier = "major"
	TierSuperMajor GridTier = "super_major"
)

// Spacing returns the tier's line spacing in feet.
func (t GridTier) Spacing() float64 {
	switch t {
	case TierMinor:
		return 1
	case TierMajor:
		return 10
	default:
		return 50
	}
}

func (t GridTier) color() Color {
	switch t {
	case TierMinor:
		return colorGridMinor
	case TierMajor:
		return colorGridMajor
	default:
		return colorGridSuper
	}
}

func (t GridTier) width() float64 {
	switch t {
	case TierMinor:
		return 0.5
	case TierMajor:
		return 1
	default:
		return 1.5
	}
}

// Options control scene layout.
type Options struct {
	PixelsPerFoot     float64
	MinorGridMaxFeet  float64 // minor grid only when the long side is at most this
	SuperMajorMinFeet float64 // super-major grid only when the long side is at least this
	RulerSize         float64 // pixels reserved for rulers on the top and left
	LegendSize        float64 // pixels reserved for the legend below the property
	RulerStep         float64 // feet between ruler ticks
}

// DefaultOptions returns the standard canvas layout.
func DefaultOptions() Options {
	return Options{
		PixelsPerFoot:     10,
		MinorGridMaxFeet:  200,
		SuperMajorMinFeet: 100,
		RulerSize:         24,
		LegendSize:        28,
		RulerStep:         10,
	}
}

// GridLine is one grid line in canvas pixels.
type GridLine struct {
	Tier GridTier `json:"tier"`
	X1   float64  `json:"x1"`
	Y1   float64  `json:"y1"`
	X2   float64  `json:"x2"`
	Y2   float64  `json:"y2"`
}

// Shape is a drawn structure footprint.
type Shape struct {
	ID          int64         `json:"id,omitempty"`
	Label       string        `json:"label"`
	Icon        string        `json:"icon,omitempty"`
	Rect        geometry.Rect `json:"rect"`
	Status      Status        `json:"status"`
	Fill        Color         `json:"-"`
	Stroke      Color         `json:"-"`
	StrokeWidth float64       `json:"stroke_width"`
	Dragging    bool          `json:"dragging"`
}

// Axis identifies a ruler.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Tick is a ruler mark.
type Tick struct {
	Axis  Axis    `json:"axis"`
	Pos   float64 `json:"pos"` // pixels along the axis
	Feet  float64 `json:"feet"`
	Label string  `json:"label"`
}

// Legend is the scale and area summary.
type Legend struct {
	Scale     string  `json:"scale"`
	AreaSqFt  float64 `json:"area_sq_ft"`
	AreaAcres float64 `json:"area_acres"`
	Text      string  `json:"text"`
}

// Tooltip is the floating coordinate readout shown during a drag.
type Tooltip struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Scene is everything needed to draw one property canvas. Coordinates are
// canvas pixels with the property's top-left corner at Origin.
type Scene struct {
	Width        float64       `json:"width"`
	Height       float64       `json:"height"`
	Origin       float64       `json:"origin"`
	PropertyName string        `json:"property_name"`
	Property     geometry.Rect `json:"property"`
	Grid         []GridLine    `json:"grid"`
	Structures   []Shape       `json:"structures"`
	Ghost        *Shape        `json:"ghost,omitempty"`
	Ticks        []Tick        `json:"ticks"`
	Legend       Legend        `json:"legend"`
	Tooltip      *Tooltip      `json:"tooltip,omitempty"`
}

// BuildScene derives a scene from a controller view.
func BuildScene(v interaction.View, opts Options) (*Scene, error) {
	p := v.Property
	if p == nil {
		return nil, fmt.Errorf("no property to render")
	}
	if p.Width <= 0 || p.Length <= 0 {
		return nil, fmt.Errorf("property %d has invalid dimensions %.1f x %.1f", p.ID, p.Width, p.Length)
	}
	ppf := opts.PixelsPerFoot
	o := opts.RulerSize

	s := &Scene{
		Width:        o + p.Width*ppf + 1,
		Height:       o + p.Length*ppf + opts.LegendSize,
		Origin:       o,
		PropertyName: p.Name,
		Property:     geometry.Rect{X: o, Y: o, Width: p.Width * ppf, Height: p.Length * ppf},
	}

	s.Grid = gridLines(p, v.Grid, opts)
	s.Ticks = rulerTicks(p, opts)
	s.Legend = legend(p, ppf)

	drag := v.Drag
	for _, ps := range p.Structures {
		t, ok := v.Catalog.Lookup(ps.StructureID)
		if !ok {
			log.Printf("Not rendering placed structure %d: unknown structure type %d", ps.ID, ps.StructureID)
			continue
		}
		shape := Shape{
			ID:    ps.ID,
			Label: model.DisplayName(ps, t),
			Icon:  t.Icon,
			Rect:  toCanvas(model.Footprint(t, ps.Position), o, ppf),
		}
		status := StatusDefault
		if drag != nil && drag.Source == interaction.SourcePlaced && drag.PlacedID == ps.ID {
			shape.Dragging = true
			status = StatusOf(drag.Result)
		}
		shape.paint(status)
		s.Structures = append(s.Structures, shape)
	}

	if drag != nil && drag.Source == interaction.SourcePalette {
		t, _ := v.Catalog.Lookup(drag.StructureID)
		ghost := Shape{
			Label:    drag.Name,
			Icon:     t.Icon,
			Rect:     toCanvas(geometry.Rect{X: drag.Position.X, Y: drag.Position.Y, Width: drag.Width, Height: drag.Length}, o, ppf),
			Dragging: true,
		}
		status := StatusOf(drag.Result)
		if !drag.InBounds {
			status = StatusConflict
		}
		ghost.paint(status)
		s.Ghost = &ghost
	}

	if drag != nil {
		s.Tooltip = tooltip(drag, o, ppf)
	}
	return s, nil
}

func (sh *Shape) paint(status Status) {
	sh.Status = status
	sh.Fill, sh.Stroke = status.Colors()
	sh.StrokeWidth = StrokeStatic
	if sh.Dragging {
		sh.StrokeWidth = StrokeDragging
	}
}

func toCanvas(r geometry.Rect, origin, ppf float64) geometry.Rect {
	return geometry.Rect{
		X:      origin + r.X*ppf,
		Y:      origin + r.Y*ppf,
		Width:  r.Width * ppf,
		Height: r.Height * ppf,
	}
}

// GridTiers returns the tiers drawn for a property under the given toggles.
func GridTiers(p *model.Property, g interaction.GridToggles, opts Options) []GridTier {
	long := math.Max(p.Width, p.Length)
	var tiers []GridTier
	if g.Minor && long <= opts.MinorGridMaxFeet {
		tiers = append(tiers, TierMinor)
	}
	if g.Major {
		tiers = append(tiers, TierMajor)
	}
	if g.SuperMajor && long >= opts.SuperMajorMinFeet {
		tiers = append(tiers, TierSuperMajor)
	}
	return tiers
}

// gridLines draws interior lines only; the boundary is drawn separately.
func gridLines(p *model.Property, g interaction.GridToggles, opts Options) []GridLine {
	o, ppf := opts.RulerSize, opts.PixelsPerFoot
	right, bottom := o+p.Width*ppf, o+p.Length*ppf
	var lines []GridLine
	for _, tier := range GridTiers(p, g, opts) {
		step := tier.Spacing()
		for i := 1; float64(i)*step < p.Width; i++ {
			x := o + float64(i)*step*ppf
			lines = append(lines, GridLine{Tier: tier, X1: x, Y1: o, X2: x, Y2: bottom})
		}
		for i := 1; float64(i)*step < p.Length; i++ {
			y := o + float64(i)*step*ppf
			lines = append(lines, GridLine{Tier: tier, X1: o, Y1: y, X2: right, Y2: y})
		}
	}
	return lines
}

func rulerTicks(p *model.Property, opts Options) []Tick {
	o, ppf, step := opts.RulerSize, opts.PixelsPerFoot, opts.RulerStep
	if step <= 0 {
		step = 10
	}
	var ticks []Tick
	for i := 0; float64(i)*step <= p.Width; i++ {
		f := float64(i) * step
		ticks = append(ticks, Tick{Axis: AxisX, Pos: o + f*ppf, Feet: f, Label: fmt.Sprintf("%.0f'", f)})
	}
	for i := 0; float64(i)*step <= p.Length; i++ {
		f := float64(i) * step
		ticks = append(ticks, Tick{Axis: AxisY, Pos: o + f*ppf, Feet: f, Label: fmt.Sprintf("%.0f'", f)})
	}
	return ticks
}

func legend(p *model.Property, ppf float64) Legend {
	area := p.Area()
	acres := area / sqFtPerAcre
	return Legend{
		Scale:     fmt.Sprintf("1 ft = %g px", ppf),
		AreaSqFt:  area,
		AreaAcres: acres,
		Text:      fmt.Sprintf("%g' x %g' | %.0f sq ft | %.2f acres", p.Width, p.Length, area, acres),
	}
}

func tooltip(d *interaction.DragView, origin, ppf float64) *Tooltip {
	t := &Tooltip{
		X:    origin + d.Position.X*ppf,
		Y:    origin + d.Position.Y*ppf - 8,
		Text: fmt.Sprintf("%s (%g, %g) ft", d.Name, d.Position.X, d.Position.Y),
	}
	if d.Cursor != nil {
		t.X = origin + d.Cursor.X + 12
		t.Y = origin + d.Cursor.Y + 12
	}
	return t
}
