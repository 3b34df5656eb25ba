package seatgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowLabels(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for idx, label := range cases {
		assert.Equal(t, label, IndexToRowLabel(idx))
		got, ok := RowLabelToIndex(label)
		assert.True(t, ok, label)
		assert.Equal(t, idx, got, label)
	}
	assert.Equal(t, "", IndexToRowLabel(-1))
}

func TestRowLabelToIndexInput(t *testing.T) {
	got, ok := RowLabelToIndex(" ab ")
	assert.True(t, ok)
	assert.Equal(t, 27, got)

	for _, bad := range []string{"", "  ", "A1", "Ä", "-"} {
		_, ok := RowLabelToIndex(bad)
		assert.False(t, ok, "%q", bad)
	}
}

func TestRowNumbersStartOffset(t *testing.T) {
	assert.Equal(t, []int{10, 11, 12}, rowNumbers(3, 0, 10, NumberLeftToRight))
	assert.Equal(t, []int{12, 11, 10}, rowNumbers(3, 1, 10, NumberSerpentine))
	assert.Equal(t, []int{2, 1, 3, 4}, rowNumbers(4, 0, 1, NumberCenterOut))
	assert.Equal(t, []int{3, 1, 2, 4}, rowNumbers(4, 0, 1, NumberCenterOutPaired))
	assert.Empty(t, rowNumbers(0, 0, 1, NumberCenterOut))
}
