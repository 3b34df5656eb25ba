package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Polygon is an ordered, implicitly closed ring of vertices.  The last point
// never repeats the first.
type Polygon []Point2D

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// BottomCenter returns the middle of the bottom edge, which is where a stage
// sits by convention.
func (r Rect) BottomCenter() Point2D {
	return Point2D{X: (r.MinX + r.MaxX) / 2, Y: r.MaxY}
}

// PointInPolygon reports whether p lies inside poly using even-odd ray
// casting.  Polygons with fewer than three vertices contain nothing.
func PointInPolygon(p Point2D, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := poly[i], poly[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Bounds returns the bounding box of poly.  An empty polygon yields the
// zero Rect.
func Bounds(poly Polygon) Rect {
	if len(poly) == 0 {
		return Rect{}
	}
	box := r2.Box{Min: poly[0].vec(), Max: poly[0].vec()}
	for _, p := range poly[1:] {
		box.Min = r2.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y)}
		box.Max = r2.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y)}
	}
	return Rect{MinX: box.Min.X, MinY: box.Min.Y, MaxX: box.Max.X, MaxY: box.Max.Y}
}

// Centroid returns the arithmetic mean of the vertices.  It is not area
// weighted; it is only used as a pivot and a label anchor.
func Centroid(poly Polygon) Point2D {
	if len(poly) == 0 {
		return Point2D{}
	}
	var sum r2.Vec
	for _, p := range poly {
		sum = r2.Add(sum, p.vec())
	}
	return fromVec(r2.Scale(1/float64(len(poly)), sum))
}

// LongestEdge returns the endpoints of the longest edge, including the
// closing edge from the last vertex back to the first.
func LongestEdge(poly Polygon) (a, b Point2D, ok bool) {
	n := len(poly)
	if n < 2 {
		return Point2D{}, Point2D{}, false
	}
	best := -1.0
	for i := 0; i < n; i++ {
		p, q := poly[i], poly[(i+1)%n]
		if d := p.Distance(q); d > best {
			best, a, b = d, p, q
		}
	}
	return a, b, true
}

// Rotate returns a copy of poly rotated by angle radians around pivot.
func Rotate(poly Polygon, pivot Point2D, angle float64) Polygon {
	out := make(Polygon, len(poly))
	for i, p := range poly {
		out[i] = p.RotateAround(pivot, angle)
	}
	return out
}
