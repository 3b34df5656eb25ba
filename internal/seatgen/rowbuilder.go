package seatgen

import (
	"math"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
)

const (
	// geomEps absorbs floating point noise so a seat touching the boundary
	// exactly is not rejected by the strict ray casting test.
	geomEps = 1e-3
	// countEps keeps floor() from losing a seat to rounding when a span is
	// an exact multiple of the pitch.
	countEps = 1e-6
	// maxSamples bounds how finely a single row is probed for its span.
	maxSamples = 20000
	// bisectSteps refines each span edge to well below a pixel.
	bisectSteps = 30
)

// placedRow is a row of accepted seats in canvas coordinates, in row order.
type placedRow struct {
	index int
	seats []geometry.Point2D
}

// span is a contiguous stretch of a row where a seat square fits.
type span struct {
	lo, hi float64
	full   bool // the whole loop of a closed row
}

func (s span) width() float64 { return s.hi - s.lo }

// frame maps between canvas space and the rotated space the pattern is laid
// out in.  Rotation always pivots on the polygon centroid.
type frame struct {
	pivot geometry.Point2D
	angle float64 // radians, local -> canvas
}

func newFrame(poly geometry.Polygon, o Options) frame {
	f := frame{pivot: geometry.Centroid(poly)}
	if o.AutoAlign {
		if a, b, ok := geometry.LongestEdge(poly); ok {
			f.angle = normalizeHalfTurn(math.Atan2(b.Y-a.Y, b.X-a.X))
		}
		return f
	}
	f.angle = o.GridRotation * math.Pi / 180
	return f
}

func (f frame) toCanvas(p geometry.Point2D) geometry.Point2D { return p.RotateAround(f.pivot, f.angle) }
func (f frame) toLocal(p geometry.Point2D) geometry.Point2D  { return p.RotateAround(f.pivot, -f.angle) }

// normalizeHalfTurn folds an edge direction into (-pi/2, pi/2] so aligning
// to an edge never turns the section upside down.
func normalizeHalfTurn(a float64) float64 {
	for a > math.Pi/2 {
		a -= math.Pi
	}
	for a <= -math.Pi/2 {
		a += math.Pi
	}
	return a
}

// rowBuilder applies rotation, alignment, the seats-per-row override, the
// edge margin, aisles and the boundary test to a pattern's raw rows.
type rowBuilder struct {
	opts  Options
	world geometry.Polygon
	local geometry.Polygon
	frame frame
	half  float64 // half size of the seat square including the edge margin
}

func newRowBuilder(poly geometry.Polygon, o Options) *rowBuilder {
	f := newFrame(poly, o)
	return &rowBuilder{
		opts:  o,
		world: poly,
		local: geometry.Rotate(poly, f.pivot, -f.angle),
		frame: f,
		half:  o.SeatSize/2 + o.EdgeMargin - geomEps,
	}
}

// focal returns the curvature centre in the local frame.
func (b *rowBuilder) focal() geometry.Point2D {
	if b.opts.FocalPoint != nil {
		return b.frame.toLocal(*b.opts.FocalPoint)
	}
	if b.opts.Pattern == PatternRadial {
		return geometry.Centroid(b.local)
	}
	return geometry.Bounds(b.local).BottomCenter()
}

// build runs the whole pipeline and returns the non-empty rows, stopping as
// soon as Capacity seats have been accepted.
func (b *rowBuilder) build() []placedRow {
	raw := strategyFor(b.opts.Pattern).rows(b.local, b.focal(), b.opts)
	var out []placedRow
	remaining := b.opts.Capacity
	for _, row := range raw {
		if remaining <= 0 {
			break
		}
		spans := b.spans(row)
		if len(spans) == 0 {
			continue
		}
		params := b.align(row, spans)
		params = b.keepFitting(row, params)
		params = b.insertAisles(params)
		var seats []geometry.Point2D
		for _, s := range params {
			if remaining <= 0 {
				break
			}
			p := b.frame.toCanvas(row.at(s))
			if !geometry.PointInPolygon(p, b.world) {
				continue
			}
			seats = append(seats, p)
			remaining--
		}
		if len(seats) > 0 {
			out = append(out, placedRow{index: row.index, seats: seats})
		}
	}
	return out
}

func (b *rowBuilder) fits(p geometry.Point2D) bool {
	return squareInside(b.local, p, b.half, true)
}

// spans probes the row at sub-seat resolution and returns every stretch
// where a seat square fits, with both ends refined by bisection.
func (b *rowBuilder) spans(row rawRow) []span {
	length := row.to - row.from
	if length <= 0 {
		return nil
	}
	step := math.Min(row.pitch, b.opts.SeatSize) / 4
	m := int(math.Ceil(length / step))
	if m > maxSamples {
		m = maxSamples
	}
	if m < 2 {
		m = 2
	}
	step = length / float64(m)

	count := m + 1
	if row.closed {
		count = m // the last sample would repeat the first
	}
	ok := make([]bool, count)
	anyBad, anyGood := false, false
	for k := range ok {
		ok[k] = b.fits(row.at(row.from + float64(k)*step))
		anyBad = anyBad || !ok[k]
		anyGood = anyGood || ok[k]
	}
	if !anyGood {
		return nil
	}
	if row.closed && !anyBad {
		return []span{{lo: row.from, hi: row.to, full: true}}
	}

	// Closed rows are unrolled from the first rejected sample at or after
	// the bottom of the loop: no span straddles the seam and arcs above the
	// centre read left to right.
	start := 0
	if row.closed {
		for j := 0; j < count; j++ {
			if k := (count/2 + j) % count; !ok[k] {
				start = k
				break
			}
		}
	}
	param := func(k int) float64 { return row.from + float64(start+k)*step }
	good := func(k int) bool { return ok[(start+k)%count] }

	var out []span
	for k := 0; k < count; {
		if !good(k) {
			k++
			continue
		}
		first := k
		for k < count && good(k) {
			k++
		}
		last := k - 1
		lo, hi := param(first), param(last)
		if first > 0 || row.closed {
			lo = b.refine(row, param(first-1), lo)
		}
		if last < count-1 || row.closed {
			hi = b.refine(row, param(last+1), hi)
		}
		out = append(out, span{lo: lo, hi: hi})
	}
	return out
}

// refine bisects between a rejected parameter and an accepted one and
// returns the accepted end of the final bracket.
func (b *rowBuilder) refine(row rawRow, bad, good float64) float64 {
	for i := 0; i < bisectSteps; i++ {
		mid := (bad + good) / 2
		if b.fits(row.at(mid)) {
			good = mid
		} else {
			bad = mid
		}
	}
	return good
}

// align positions seats inside each span according to RowAlignment and the
// SeatsPerRow override, returning row parameters in row order.
func (b *rowBuilder) align(row rawRow, spans []span) []float64 {
	spans = b.stagger(row, spans)
	if len(spans) == 0 {
		return nil
	}
	counts := make([]int, len(spans))
	natural := 0
	for i, sp := range spans {
		counts[i] = naturalCount(sp, row.pitch)
		natural += counts[i]
	}

	want := b.opts.SeatsPerRow
	switch {
	case want == 0 || want == natural:
		return b.place(spans, counts, row.pitch)
	case want < natural:
		if len(spans) == 1 && b.opts.RowAlignment == AlignJustify {
			return spread(spans[0], want)
		}
		return pick(b.place(spans, counts, row.pitch), want, b.opts.RowAlignment)
	default:
		return b.redistribute(spans, counts, want)
	}
}

// stagger shrinks the spans of an offset row so its seats fall between the
// seats of the neighbouring rows.
func (b *rowBuilder) stagger(row rawRow, spans []span) []span {
	if row.offset == 0 {
		return spans
	}
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		switch b.opts.RowAlignment {
		case AlignLeft:
			sp.lo += row.offset
		case AlignRight:
			sp.hi -= row.offset
		default:
			sp.lo += row.offset / 2
			sp.hi -= row.offset / 2
		}
		if sp.hi >= sp.lo {
			out = append(out, sp)
		}
	}
	return out
}

func naturalCount(sp span, pitch float64) int {
	if sp.full {
		return int(math.Floor(sp.width()/pitch + countEps))
	}
	return int(math.Floor(sp.width()/pitch+countEps)) + 1
}

// place lays out counts[i] seats at the natural pitch inside spans[i].
func (b *rowBuilder) place(spans []span, counts []int, pitch float64) []float64 {
	var out []float64
	for i, sp := range spans {
		n := counts[i]
		if n <= 0 {
			continue
		}
		if sp.full {
			out = append(out, spread(sp, n)...)
			continue
		}
		used := float64(n-1) * pitch
		start := sp.lo
		switch b.opts.RowAlignment {
		case AlignRight:
			start = sp.hi - used
		case AlignCenter:
			start = sp.lo + (sp.width()-used)/2
		case AlignJustify:
			out = append(out, spread(sp, n)...)
			continue
		}
		for k := 0; k < n; k++ {
			out = append(out, start+float64(k)*pitch)
		}
	}
	return out
}

// spread distributes n seats evenly over a span, touching both ends of an
// open span and evenly around a full loop.
func spread(sp span, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if sp.full {
		gap := sp.width() / float64(n)
		for k := range out {
			out[k] = sp.lo + float64(k)*gap
		}
		return out
	}
	if n == 1 {
		out[0] = sp.lo + sp.width()/2
		return out
	}
	gap := sp.width() / float64(n-1)
	for k := range out {
		out[k] = sp.lo + float64(k)*gap
	}
	return out
}

// pick keeps want of the naturally placed seats, choosing which ones by the
// row alignment.
func pick(params []float64, want int, align RowAlignment) []float64 {
	n := len(params)
	if want >= n {
		return params
	}
	switch align {
	case AlignRight:
		return params[n-want:]
	case AlignCenter:
		start := (n - want) / 2
		return params[start : start+want]
	case AlignJustify:
		if want == 1 {
			return []float64{params[(n-1)/2]}
		}
		out := make([]float64, want)
		for k := range out {
			out[k] = params[int(math.Round(float64(k)*float64(n-1)/float64(want-1)))]
		}
		return out
	default:
		return params[:want]
	}
}

// redistribute squeezes more seats than fit at the natural pitch into the
// spans.  Seats may close up to touching but never overlap, so the result
// can still fall short of want.
func (b *rowBuilder) redistribute(spans []span, counts []int, want int) []float64 {
	limits := make([]int, len(spans))
	for i, sp := range spans {
		limits[i] = naturalCount(sp, b.opts.SeatSize)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	for total < want {
		best := -1
		bestGap := 0.0
		for i, sp := range spans {
			if counts[i] >= limits[i] {
				continue
			}
			if gap := sp.width() / float64(counts[i]+1); best < 0 || gap > bestGap {
				best, bestGap = i, gap
			}
		}
		if best < 0 {
			break
		}
		counts[best]++
		total++
	}
	var out []float64
	for i, sp := range spans {
		out = append(out, spread(sp, counts[i])...)
	}
	return out
}

// keepFitting drops every seat whose square, grown by the edge margin,
// would cross the boundary.
func (b *rowBuilder) keepFitting(row rawRow, params []float64) []float64 {
	out := params[:0:0]
	for _, s := range params {
		if b.fits(row.at(s)) {
			out = append(out, s)
		}
	}
	return out
}

// insertAisles shifts every seat after each listed ordinal further along the
// row by AisleGap.  Seats are only displaced, never removed here.
func (b *rowBuilder) insertAisles(params []float64) []float64 {
	if len(b.opts.AislePositions) == 0 || b.opts.AisleGap == 0 {
		return params
	}
	out := make([]float64, len(params))
	for i, s := range params {
		shift := 0.0
		for _, after := range b.opts.AislePositions {
			if after >= 1 && i >= after {
				shift += b.opts.AisleGap
			}
		}
		out[i] = s + shift
	}
	return out
}
