package seatgen

import (
	"strconv"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
)

// GeneratedSeat is one seat produced by Generate.  Rotation is only set
// when the options ask seats to face the focal point.
type GeneratedSeat struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Row      string   `json:"row"`
	Number   int      `json:"number"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation *float64 `json:"rotation,omitempty"` // degrees toward the focal point
}

// assignNumbers letters the rows in generation order and numbers the seats
// of each row according to the numbering pattern.
func assignNumbers(rows []placedRow, poly geometry.Polygon, o Options) []GeneratedSeat {
	startIdx, ok := RowLabelToIndex(o.StartRow)
	if !ok {
		startIdx = 0
	}
	focal := geometry.Bounds(poly).BottomCenter()
	if o.FocalPoint != nil {
		focal = *o.FocalPoint
	}

	total := 0
	for _, r := range rows {
		total += len(r.seats)
	}
	out := make([]GeneratedSeat, 0, total)
	for k, r := range rows {
		row := IndexToRowLabel(startIdx + k)
		numbers := rowNumbers(len(r.seats), k, o.StartNumber, o.NumberingPattern)
		for i, p := range r.seats {
			label := o.SectionPrefix + row + strconv.Itoa(numbers[i])
			seat := GeneratedSeat{
				ID:     "seat-" + label,
				Label:  label,
				Row:    row,
				Number: numbers[i],
				X:      p.X,
				Y:      p.Y,
			}
			if o.RotatesToFocalPoint {
				deg := p.AngleTo(focal)
				seat.Rotation = &deg
			}
			out = append(out, seat)
		}
	}
	return out
}

// rowNumbers returns the seat number for each position of a row of n seats,
// positions given in row order.
func rowNumbers(n, rowIdx, start int, pattern NumberingPattern) []int {
	nums := make([]int, n)
	switch pattern {
	case NumberRightToLeft:
		for i := range nums {
			nums[i] = start + n - 1 - i
		}
	case NumberSerpentine:
		for i := range nums {
			if rowIdx%2 == 0 {
				nums[i] = start + i
			} else {
				nums[i] = start + n - 1 - i
			}
		}
	case NumberCenterOut:
		for rank, pos := range centerOutOrder(n) {
			nums[pos] = start + rank
		}
	case NumberCenterOutPaired:
		// The middle seat and everything left of it take start, start+2, ...
		// walking outward; the right half takes start+1, start+3, ...
		mid := (n - 1) / 2
		for j, pos := 0, mid; pos >= 0; j, pos = j+1, pos-1 {
			nums[pos] = start + 2*j
		}
		for j, pos := 0, mid+1; pos < n; j, pos = j+1, pos+1 {
			nums[pos] = start + 1 + 2*j
		}
	default:
		for i := range nums {
			nums[i] = start + i
		}
	}
	return nums
}

// centerOutOrder lists row positions in the order they receive numbers:
// the middle seat, then alternately left and right moving outward.
func centerOutOrder(n int) []int {
	if n == 0 {
		return nil
	}
	mid := (n - 1) / 2
	order := []int{mid}
	for d := 1; len(order) < n; d++ {
		if mid-d >= 0 {
			order = append(order, mid-d)
		}
		if mid+d < n {
			order = append(order, mid+d)
		}
	}
	return order
}
