package history

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
	"github.com/iliyamo/venue-seat-layout/internal/model"
)

func snap(label string) Snapshot {
	return Snapshot{
		CanvasState: json.RawMessage(fmt.Sprintf(`{"label":%q}`, label)),
		Zones:       []model.Zone{{ID: "z1", Name: label}},
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Label:       label,
	}
}

func TestEmptyStack(t *testing.T) {
	s := New(0, nil)
	assert.True(t, s.Empty())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, -1, s.Position())

	_, ok := s.Undo()
	assert.False(t, ok)
	_, ok = s.Redo()
	assert.False(t, ok)
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestPushEvictsOldestBeyondDepth(t *testing.T) {
	s := New(DefaultMaxDepth, nil)
	for i := 0; i < 60; i++ {
		require.True(t, s.Push(snap(fmt.Sprintf("edit-%d", i))))
	}
	assert.Equal(t, 50, s.Len())

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "edit-59", cur.Label)

	var oldest Snapshot
	for s.CanUndo() {
		oldest, _ = s.Undo()
	}
	assert.Equal(t, "edit-10", oldest.Label, "the ten oldest snapshots are gone")
	assert.Equal(t, 0, s.Position())
}

func TestUndoRedo(t *testing.T) {
	s := New(10, nil)
	s.Push(snap("a"))
	s.Push(snap("b"))
	s.Push(snap("c"))

	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "b", got.Label)
	got, ok = s.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", got.Label)
	_, ok = s.Undo()
	assert.False(t, ok, "undo at the oldest snapshot is a no-op")
	assert.Equal(t, 0, s.Position())

	got, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, "b", got.Label)
	got, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, "c", got.Label)
	_, ok = s.Redo()
	assert.False(t, ok)
}

func TestPushAfterUndoDropsRedoBranch(t *testing.T) {
	s := New(10, nil)
	s.Push(snap("a"))
	s.Push(snap("b"))
	s.Push(snap("c"))
	s.Undo()
	s.Undo()
	require.True(t, s.CanRedo())

	s.Push(snap("d"))
	assert.False(t, s.CanRedo())
	_, ok := s.Redo()
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())

	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", got.Label)
}

func TestReplaySuppressesPushes(t *testing.T) {
	var s *Stack
	var restored []string
	s = New(10, func(sn Snapshot) {
		restored = append(restored, sn.Label)
		// Applying the snapshot fires the same change handlers as an edit.
		assert.False(t, s.Push(snap("echo of "+sn.Label)))
		assert.True(t, s.Replaying())
	})
	s.Push(snap("a"))
	s.Push(snap("b"))

	s.Undo()
	s.Redo()
	assert.Equal(t, []string{"a", "b"}, restored)
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Replaying())
	assert.True(t, s.Push(snap("c")))
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := New(10, nil)
	orig := snap("a")
	orig.Zones[0].Polygon = geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(0, 1)}
	s.Push(orig)

	orig.Zones[0].Name = "mutated"
	orig.Zones[0].Polygon[0] = geometry.Pt(9, 9)
	orig.CanvasState[0] = '['

	got, _ := s.Current()
	assert.Equal(t, "a", got.Zones[0].Name)
	assert.Equal(t, geometry.Pt(0, 0), got.Zones[0].Polygon[0])

	got.Zones[0].Name = "changed by caller"
	again, _ := s.Current()
	assert.Empty(t, cmp.Diff(snap("a").Zones[0].Name, again.Zones[0].Name))
	assert.JSONEq(t, `{"label":"a"}`, string(again.CanvasState))
}

func TestSnapshotDocument(t *testing.T) {
	doc := snap("a").Document()
	assert.JSONEq(t, `{"label":"a"}`, string(doc.CanvasState))
	require.Len(t, doc.Zones, 1)
	assert.Equal(t, "z1", doc.Zones[0].ID)
}
