// Package seatgen turns a section polygon and a SeatGenerationOptions value
// into a concrete, numbered list of seats.  Every function here is pure: the
// same polygon and options always produce the same seats.
package seatgen

import (
	"strings"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
)

// Pattern names the spatial arrangement used to lay out candidate seats.
type Pattern string

const (
	PatternGrid      Pattern = "grid"
	PatternStaggered Pattern = "staggered"
	PatternCurved    Pattern = "curved"
	PatternRadial    Pattern = "radial"
)

// NumberingPattern names the order in which seat numbers are handed out
// inside a row.
type NumberingPattern string

const (
	NumberLeftToRight     NumberingPattern = "left-to-right"
	NumberRightToLeft     NumberingPattern = "right-to-left"
	NumberSerpentine      NumberingPattern = "serpentine"
	NumberCenterOut       NumberingPattern = "center-out"
	NumberCenterOutPaired NumberingPattern = "center-out-paired"
)

// RowAlignment controls where a row's seats sit inside the row's span.
type RowAlignment string

const (
	AlignLeft    RowAlignment = "left"
	AlignCenter  RowAlignment = "center"
	AlignRight   RowAlignment = "right"
	AlignJustify RowAlignment = "justify"
)

// hexRowRatio is sin(60°), the row pitch of hexagonally packed circles.
const hexRowRatio = 0.866

const (
	defaultSeatSize = 20.0
	defaultStartRow = "A"
)

// Options configures a single generation run.  The zero value of every
// optional field selects the documented default.
type Options struct {
	Capacity             int               `json:"capacity"`
	SeatSize             float64           `json:"seat_size"`
	Spacing              float64           `json:"spacing"`
	Pattern              Pattern           `json:"pattern,omitempty"`
	StartRow             string            `json:"start_row,omitempty"`
	StartNumber          int               `json:"start_number,omitempty"`
	SectionPrefix        string            `json:"section_prefix,omitempty"`
	NumberingPattern     NumberingPattern  `json:"numbering_pattern,omitempty"`
	RowAlignment         RowAlignment      `json:"row_alignment,omitempty"`
	SeatsPerRow          int               `json:"seats_per_row,omitempty"`
	AutoAlign            bool              `json:"auto_align,omitempty"`
	GridRotation         float64           `json:"grid_rotation,omitempty"` // degrees, ignored when AutoAlign
	RotatesToFocalPoint  bool              `json:"rotates_to_focal_point,omitempty"`
	FocalPoint           *geometry.Point2D `json:"focal_point,omitempty"` // nil: bottom-center (centroid for radial)
	EdgeMargin           float64           `json:"edge_margin,omitempty"`
	RowSpacingMultiplier float64           `json:"row_spacing_multiplier,omitempty"`
	AislePositions       []int             `json:"aisle_positions,omitempty"`
	AisleGap             float64           `json:"aisle_gap,omitempty"`
}

// normalized returns a copy of o with defaults filled in and out-of-range
// values clamped.  Nonsense input is clamped, never rejected.
func (o Options) normalized() Options {
	n := o
	if n.SeatSize <= 0 {
		n.SeatSize = defaultSeatSize
	}
	if n.Spacing < 0 {
		n.Spacing = 0
	}
	n.Pattern = ParsePattern(string(n.Pattern))
	if strings.TrimSpace(n.StartRow) == "" {
		n.StartRow = defaultStartRow
	}
	if n.StartNumber < 1 {
		n.StartNumber = 1
	}
	switch n.NumberingPattern {
	case NumberLeftToRight, NumberRightToLeft, NumberSerpentine, NumberCenterOut, NumberCenterOutPaired:
	default:
		n.NumberingPattern = NumberLeftToRight
	}
	switch n.RowAlignment {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
	default:
		n.RowAlignment = AlignLeft
	}
	if n.SeatsPerRow < 0 {
		n.SeatsPerRow = 0
	}
	if n.EdgeMargin < 0 {
		n.EdgeMargin = 0
	}
	if n.RowSpacingMultiplier <= 0 {
		n.RowSpacingMultiplier = 1
	}
	if n.AisleGap < 0 {
		n.AisleGap = 0
	}
	if len(o.AislePositions) > 0 {
		n.AislePositions = append([]int(nil), o.AislePositions...)
	}
	return n
}

// cell is the centre-to-centre distance of neighbouring seats in a row.
func (o Options) cell() float64 { return o.SeatSize + o.Spacing }

// ParsePattern maps a user supplied name onto a Pattern.  Unknown and empty
// names select the staggered pattern.
func ParsePattern(name string) Pattern {
	switch p := Pattern(strings.ToLower(strings.TrimSpace(name))); p {
	case PatternGrid, PatternStaggered, PatternCurved, PatternRadial:
		return p
	}
	return PatternStaggered
}
