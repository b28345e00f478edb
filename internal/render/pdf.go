package render

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	footerHeight = 10.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// RenderPDF writes a printable plan of the scene to w. The canvas is scaled
// to fit one A4 landscape page.
func RenderPDF(w io.Writer, s *Scene) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(s.PropertyName, true)
	pdf.SetCreationDate(time.Now())
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, tr(s.PropertyName), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - footerHeight
	scale := math.Min(drawWidth/s.Width, drawHeight/s.Height)

	offsetX := marginLeft + (drawWidth-s.Width*scale)/2
	offsetY := drawAreaTop
	px := func(v float64) float64 { return offsetX + v*scale }
	py := func(v float64) float64 { return offsetY + v*scale }

	// Property background
	setFill(pdf, colorBackground)
	setDraw(pdf, colorBoundary)
	pdf.SetLineWidth(0.5)
	pdf.Rect(px(s.Property.X), py(s.Property.Y), s.Property.Width*scale, s.Property.Height*scale, "FD")

	for _, l := range s.Grid {
		setDraw(pdf, l.Tier.color())
		pdf.SetLineWidth(l.Tier.width() * 0.15)
		pdf.Line(px(l.X1), py(l.Y1), px(l.X2), py(l.Y2))
	}

	drawTicks(pdf, s, px, py)

	shapes := s.Structures
	if s.Ghost != nil {
		shapes = append(shapes[:len(shapes):len(shapes)], *s.Ghost)
	}
	for _, sh := range shapes {
		x, y := px(sh.Rect.X), py(sh.Rect.Y)
		w, h := sh.Rect.Width*scale, sh.Rect.Height*scale
		setFill(pdf, sh.Fill)
		setDraw(pdf, sh.Stroke)
		pdf.SetLineWidth(sh.StrokeWidth * 0.2)
		pdf.Rect(x, y, w, h, "FD")

		if w > 12 && h > 5 {
			pdf.SetFont("Helvetica", "", labelFontSize(w, h))
			pdf.SetTextColor(0, 0, 0)
			label := tr(sh.Label)
			labelW := pdf.GetStringWidth(label)
			if labelW < w-2 {
				pdf.SetXY(x+(w-labelW)/2, y+h/2-2)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}

	// Legend
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(marginLeft, pageHeight-marginBottom-footerHeight+2)
	pdf.CellFormat(drawWidth, 5, tr(fmt.Sprintf("%s | %s", s.Legend.Scale, s.Legend.Text)), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}
	return pdf.Output(w)
}

func drawTicks(pdf *fpdf.Fpdf, s *Scene, px, py func(float64) float64) {
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(int(colorRuler.R), int(colorRuler.G), int(colorRuler.B))
	setDraw(pdf, colorRuler)
	pdf.SetLineWidth(0.15)
	o := s.Origin
	for _, t := range s.Ticks {
		switch t.Axis {
		case AxisX:
			pdf.Line(px(t.Pos), py(o-6), px(t.Pos), py(o))
			pdf.Text(px(t.Pos)-pdf.GetStringWidth(t.Label)/2, py(o-8), t.Label)
		case AxisY:
			pdf.Line(px(o-6), py(t.Pos), px(o), py(t.Pos))
			pdf.Text(px(o-7)-pdf.GetStringWidth(t.Label), py(t.Pos)+1, t.Label)
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

func setFill(pdf *fpdf.Fpdf, c Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setDraw(pdf *fpdf.Fpdf, c Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

// labelFontSize picks a font size that fits a w x h millimetre box.
func labelFontSize(w, h float64) float64 {
	size := math.Min(w/6, h/2) * 2.5
	return math.Max(5, math.Min(size, 10))
}
