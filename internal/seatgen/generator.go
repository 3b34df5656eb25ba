package seatgen

import "github.com/iliyamo/venue-seat-layout/internal/geometry"

// Generate places up to opts.Capacity seats inside poly.  A polygon with
// fewer than three points or a non-positive capacity yields an empty slice;
// generation never fails, it drops what does not fit.
func Generate(poly geometry.Polygon, opts Options) []GeneratedSeat {
	if len(poly) < 3 || opts.Capacity <= 0 {
		return []GeneratedSeat{}
	}
	o := opts.normalized()
	rows := newRowBuilder(poly, o).build()
	return assignNumbers(rows, poly, o)
}

// Plan is the outcome of a generation request together with the capacity
// estimate the editor shows next to it.
type Plan struct {
	Seats       []GeneratedSeat `json:"seats"`
	Requested   int             `json:"requested"`
	MaxCapacity int             `json:"max_capacity"`
	Clamped     bool            `json:"clamped"` // fewer seats fit than requested
}

// NewPlan estimates the polygon's capacity and generates its seats.
func NewPlan(poly geometry.Polygon, opts Options) Plan {
	o := opts.normalized()
	seats := Generate(poly, opts)
	return Plan{
		Seats:       seats,
		Requested:   opts.Capacity,
		MaxCapacity: EstimateMaxCapacity(poly, o.SeatSize, o.Spacing, o.Pattern),
		Clamped:     opts.Capacity > 0 && len(seats) < opts.Capacity,
	}
}
