package seatgen

import "github.com/iliyamo/venue-seat-layout/internal/geometry"

// capacitySafetyMargin shrinks the seat square used by the estimator so a
// seat that only grazes the boundary is still counted.
const capacitySafetyMargin = 2.0

// EstimateMaxCapacity returns a heuristic upper bound on the number of seats
// of the given size and spacing that fit inside poly.  Editors use it as
// the maximum of the capacity slider and recompute it whenever seat size,
// spacing or edge margin change.
func EstimateMaxCapacity(poly geometry.Polygon, seatSize, spacing float64, pattern Pattern) int {
	if len(poly) < 3 || seatSize <= 0 {
		return 0
	}
	if spacing < 0 {
		spacing = 0
	}
	pattern = ParsePattern(string(pattern))
	cell := seatSize + spacing
	rowPitch := cell
	if pattern == PatternStaggered {
		rowPitch = cell * hexRowRatio
	}
	half := seatSize/2 - capacitySafetyMargin
	if half < 0 {
		half = 0
	}
	b := geometry.Bounds(poly)
	count := 0
	row := 0
	for y := b.MinY + cell/2; y < b.MaxY; y += rowPitch {
		offset := 0.0
		if pattern == PatternStaggered && row%2 == 1 {
			offset = cell / 2
		}
		for x := b.MinX + cell/2 + offset; x < b.MaxX; x += cell {
			if squareInside(poly, geometry.Pt(x, y), half, false) {
				count++
			}
		}
		row++
	}
	return count
}

// squareInside reports whether the centre and the corners of the axis
// aligned square of half-size half around c lie inside poly.  withMidpoints
// additionally probes the middle of each side, which catches thin spikes of
// the boundary poking into the square.
func squareInside(poly geometry.Polygon, c geometry.Point2D, half float64, withMidpoints bool) bool {
	if !geometry.PointInPolygon(c, poly) {
		return false
	}
	probes := [...]geometry.Point2D{
		{X: c.X - half, Y: c.Y - half},
		{X: c.X + half, Y: c.Y - half},
		{X: c.X + half, Y: c.Y + half},
		{X: c.X - half, Y: c.Y + half},
		{X: c.X, Y: c.Y - half},
		{X: c.X + half, Y: c.Y},
		{X: c.X, Y: c.Y + half},
		{X: c.X - half, Y: c.Y},
	}
	n := 4
	if withMidpoints {
		n = len(probes)
	}
	for _, p := range probes[:n] {
		if !geometry.PointInPolygon(p, poly) {
			return false
		}
	}
	return true
}
