package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// RenderSVG draws a scene as a standalone SVG document.
func RenderSVG(s *Scene) (string, error) {
	if s == nil {
		return "", fmt.Errorf("scene is nil")
	}

	var elements []string
	elements = append(elements, renderBackground(s)...)
	elements = append(elements, renderGrid(s)...)
	elements = append(elements, renderRulers(s)...)
	elements = append(elements, renderShapes(s)...)
	elements = append(elements, renderLegend(s)...)
	elements = append(elements, renderTooltip(s)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif">`,
		formatFloat(s.Width), formatFloat(s.Height), formatFloat(s.Width), formatFloat(s.Height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

func renderBackground(s *Scene) []string {
	p := s.Property
	return []string{
		fmt.Sprintf(`<title>%s</title>`, html.EscapeString(s.PropertyName)),
		fmt.Sprintf(`<rect class="property" x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="2"/>`,
			formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Width), formatFloat(p.Height),
			colorBackground.Hex(), colorBoundary.Hex()),
	}
}

func renderGrid(s *Scene) []string {
	out := make([]string, 0, len(s.Grid))
	for _, l := range s.Grid {
		out = append(out, fmt.Sprintf(`<line class="grid-%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
			l.Tier, formatFloat(l.X1), formatFloat(l.Y1), formatFloat(l.X2), formatFloat(l.Y2),
			l.Tier.color().Hex(), formatFloat(l.Tier.width())))
	}
	return out
}

func renderRulers(s *Scene) []string {
	out := make([]string, 0, 2*len(s.Ticks))
	o := s.Origin
	for _, t := range s.Ticks {
		switch t.Axis {
		case AxisX:
			out = append(out,
				fmt.Sprintf(`<line class="tick" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`,
					formatFloat(t.Pos), formatFloat(o-6), formatFloat(t.Pos), formatFloat(o), colorRuler.Hex()),
				fmt.Sprintf(`<text x="%s" y="%s" font-size="9" text-anchor="middle" fill="%s">%s</text>`,
					formatFloat(t.Pos), formatFloat(o-8), colorRuler.Hex(), html.EscapeString(t.Label)))
		case AxisY:
			out = append(out,
				fmt.Sprintf(`<line class="tick" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`,
					formatFloat(o-6), formatFloat(t.Pos), formatFloat(o), formatFloat(t.Pos), colorRuler.Hex()),
				fmt.Sprintf(`<text x="%s" y="%s" font-size="9" text-anchor="end" fill="%s">%s</text>`,
					formatFloat(o-7), formatFloat(t.Pos+3), colorRuler.Hex(), html.EscapeString(t.Label)))
		}
	}
	return out
}

func renderShapes(s *Scene) []string {
	shapes := s.Structures
	if s.Ghost != nil {
		shapes = append(shapes[:len(shapes):len(shapes)], *s.Ghost)
	}
	out := make([]string, 0, 2*len(shapes))
	for i, sh := range shapes {
		class := "structure"
		opacity := "0.85"
		if s.Ghost != nil && i == len(shapes)-1 {
			class = "ghost"
			opacity = "0.6"
		}
		id := ""
		if sh.ID != 0 {
			id = fmt.Sprintf(` data-id="%d"`, sh.ID)
		}
		out = append(out, fmt.Sprintf(`<rect class="%s %s"%s x="%s" y="%s" width="%s" height="%s" fill="%s" fill-opacity="%s" stroke="%s" stroke-width="%s"/>`,
			class, sh.Status, id,
			formatFloat(sh.Rect.X), formatFloat(sh.Rect.Y), formatFloat(sh.Rect.Width), formatFloat(sh.Rect.Height),
			sh.Fill.Hex(), opacity, sh.Stroke.Hex(), formatFloat(sh.StrokeWidth)))

		label := sh.Label
		if sh.Icon != "" {
			label = sh.Icon + " " + label
		}
		out = append(out, fmt.Sprintf(`<text x="%s" y="%s" font-size="10" text-anchor="middle" dominant-baseline="middle">%s</text>`,
			formatFloat(sh.Rect.X+sh.Rect.Width/2), formatFloat(sh.Rect.Y+sh.Rect.Height/2), html.EscapeString(label)))
	}
	return out
}

func renderLegend(s *Scene) []string {
	y := s.Property.Y + s.Property.Height + 18
	return []string{
		fmt.Sprintf(`<text class="legend" x="%s" y="%s" font-size="11">%s | %s</text>`,
			formatFloat(s.Property.X), formatFloat(y), html.EscapeString(s.Legend.Scale), html.EscapeString(s.Legend.Text)),
	}
}

func renderTooltip(s *Scene) []string {
	t := s.Tooltip
	if t == nil {
		return nil
	}
	w := float64(len(t.Text))*6 + 10
	return []string{
		fmt.Sprintf(`<rect class="tooltip" x="%s" y="%s" width="%s" height="18" rx="3" fill="%s" fill-opacity="0.85"/>`,
			formatFloat(t.X), formatFloat(t.Y-13), formatFloat(w), colorTooltip.Hex()),
		fmt.Sprintf(`<text x="%s" y="%s" font-size="11" fill="#ffffff">%s</text>`,
			formatFloat(t.X+5), formatFloat(t.Y), html.EscapeString(t.Text)),
	}
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
