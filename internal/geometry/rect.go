// Package geometry holds the axis-aligned rectangle primitives used by the
// layout validator and the interaction controller. All values are in feet.
package geometry

import "math"

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns the rectangle's area in square feet.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Intersects reports whether a and b overlap. Rectangles that only share an
// edge or a corner do not intersect.
func Intersects(a, b Rect) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// FullyContains reports whether inner lies entirely within outer. Bounds are
// inclusive, so every rectangle contains itself.
func FullyContains(outer, inner Rect) bool {
	return inner.X >= outer.X &&
		inner.Y >= outer.Y &&
		inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y+inner.Height <= outer.Y+outer.Height
}

// Within reports whether r fits inside a boundary of the given extents
// anchored at the origin.
func (r Rect) Within(width, length float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= width && r.Bottom() <= length
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid leaves v
// unchanged.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// Clamp limits v to [lo, hi]. When hi < lo (the footprint is larger than the
// boundary) lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
