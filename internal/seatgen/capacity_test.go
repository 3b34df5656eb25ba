package seatgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
)

func TestEstimateMaxCapacity(t *testing.T) {
	sq := rect(100, 100)

	assert.Equal(t, 25, EstimateMaxCapacity(sq, 20, 0, PatternGrid))
	assert.Equal(t, 23, EstimateMaxCapacity(sq, 20, 0, PatternStaggered))
	assert.Equal(t, 23, EstimateMaxCapacity(sq, 20, 0, "unknown"), "unknown patterns estimate as staggered")
	assert.Equal(t, 25, EstimateMaxCapacity(sq, 20, -4, PatternGrid), "negative spacing counts as zero")
	assert.Equal(t, 16, EstimateMaxCapacity(sq, 20, 5, PatternGrid))
}

func TestEstimateMaxCapacityDegenerate(t *testing.T) {
	assert.Zero(t, EstimateMaxCapacity(nil, 20, 0, PatternGrid))
	assert.Zero(t, EstimateMaxCapacity(geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(10, 10)}, 20, 0, PatternGrid))
	assert.Zero(t, EstimateMaxCapacity(rect(100, 100), 0, 0, PatternGrid))
	assert.Zero(t, EstimateMaxCapacity(rect(10, 10), 20, 0, PatternGrid))
}

func TestEstimateShrinksWithSeatSize(t *testing.T) {
	poly := geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(600, 0), geometry.Pt(300, 400)}
	small := EstimateMaxCapacity(poly, 16, 4, PatternGrid)
	large := EstimateMaxCapacity(poly, 30, 4, PatternGrid)
	assert.Greater(t, small, large)
}
