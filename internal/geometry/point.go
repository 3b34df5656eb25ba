// Package geometry holds the planar primitives the seat generator works
// with.  Coordinates are venue-canvas units with y growing downward, the
// same space the floor plan editor draws in.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point2D is a point on the floor plan canvas.
type Point2D struct {
	X float64 `json:"x"` // horizontal canvas coordinate
	Y float64 `json:"y"` // vertical canvas coordinate (grows downward)
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

func (p Point2D) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point2D { return Point2D{X: v.X, Y: v.Y} }

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return fromVec(r2.Add(p.vec(), q.vec()))
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return fromVec(r2.Sub(p.vec(), q.vec()))
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return r2.Norm(r2.Sub(p.vec(), q.vec()))
}

// RotateAround rotates p by angle radians around pivot.
func (p Point2D) RotateAround(pivot Point2D, angle float64) Point2D {
	if angle == 0 {
		return p
	}
	return fromVec(r2.Rotate(p.vec(), angle, pivot.vec()))
}

// AngleTo returns the direction from p to q in degrees, measured from the
// positive x axis.
func (p Point2D) AngleTo(q Point2D) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X) * 180 / math.Pi
}
