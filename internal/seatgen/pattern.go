package seatgen

import (
	"math"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
)

// maxRows bounds the number of rows or rings a strategy may emit for a
// single polygon, so a tiny seat in a huge polygon cannot run away.
const maxRows = 4096

// rawRow is one row of candidate seats as a pattern produces it, before
// alignment, rotation back to canvas space and boundary filtering.  Seats
// live on a path parameterised by arc length s in [from, to].
type rawRow struct {
	index    int
	at       func(s float64) geometry.Point2D
	from, to float64
	pitch    float64 // arc length between neighbouring seat centres
	offset   float64 // stagger shift applied to this row
	closed   bool    // the path is a loop; from and to coincide
}

// strategy produces the raw rows for a polygon already rotated into the
// grid's frame.  focal is the curvature centre for curved and radial
// layouts, expressed in the same frame.
type strategy interface {
	rows(local geometry.Polygon, focal geometry.Point2D, o Options) []rawRow
}

func strategyFor(p Pattern) strategy {
	switch p {
	case PatternGrid:
		return gridStrategy{}
	case PatternCurved:
		return curvedStrategy{}
	case PatternRadial:
		return radialStrategy{}
	default:
		return gridStrategy{staggered: true}
	}
}

// gridStrategy emits straight horizontal rows.  The staggered variant packs
// rows at the hexagonal ratio and shifts odd rows by half a cell.
type gridStrategy struct {
	staggered bool
}

func (g gridStrategy) rows(local geometry.Polygon, _ geometry.Point2D, o Options) []rawRow {
	b := geometry.Bounds(local)
	cell := o.cell()
	pitchY := cell * o.RowSpacingMultiplier
	if g.staggered {
		pitchY *= hexRowRatio
	}
	var out []rawRow
	first := b.MinY + o.SeatSize/2 + o.EdgeMargin
	for i := 0; i < maxRows; i++ {
		y := first + float64(i)*pitchY
		if y > b.MaxY+pitchY {
			break
		}
		offset := 0.0
		if g.staggered && i%2 == 1 {
			offset = cell / 2
		}
		out = append(out, rawRow{
			index:  i,
			at:     func(s float64) geometry.Point2D { return geometry.Pt(s, y) },
			from:   b.MinX - cell,
			to:     b.MaxX + cell,
			pitch:  cell,
			offset: offset,
		})
	}
	return out
}

// curvedStrategy bends rows into arcs around the focal point, amphitheatre
// style.  The outermost arc is generated first so rows still run from the
// back of the section toward the stage, and arcs tighten as the row index
// grows.
type curvedStrategy struct{}

func (curvedStrategy) rows(local geometry.Polygon, focal geometry.Point2D, o Options) []rawRow {
	pitchR := o.cell() * o.RowSpacingMultiplier
	rMax := farthestVertex(local, focal) + pitchR
	var out []rawRow
	for i := 0; i < maxRows; i++ {
		r := rMax - float64(i)*pitchR
		if r < o.SeatSize/2 {
			break
		}
		out = append(out, ring(i, focal, r, o.cell()))
	}
	return out
}

// radialStrategy places seats on concentric rings around the focal point,
// innermost ring first.  Spacing along each ring is constant, so outer rings
// hold proportionally more seats.
type radialStrategy struct{}

func (radialStrategy) rows(local geometry.Polygon, focal geometry.Point2D, o Options) []rawRow {
	pitchR := o.cell() * o.RowSpacingMultiplier
	rMax := farthestVertex(local, focal) + pitchR
	var out []rawRow
	for i := 0; i < maxRows; i++ {
		r := float64(i+1) * pitchR
		if r > rMax {
			break
		}
		out = append(out, ring(i, focal, r, o.cell()))
	}
	return out
}

// ring builds a circular row of radius r around c.  s = 0 is the top of the
// circle and s grows clockwise on screen, so the visible part of an arc
// above the centre reads left to right.
func ring(index int, c geometry.Point2D, r, pitch float64) rawRow {
	return rawRow{
		index: index,
		at: func(s float64) geometry.Point2D {
			phi := s / r
			return geometry.Pt(c.X+r*math.Sin(phi), c.Y-r*math.Cos(phi))
		},
		from:   0,
		to:     2 * math.Pi * r,
		pitch:  pitch,
		closed: true,
	}
}

func farthestVertex(poly geometry.Polygon, p geometry.Point2D) float64 {
	d := 0.0
	for _, v := range poly {
		d = math.Max(d, v.Distance(p))
	}
	return d
}
