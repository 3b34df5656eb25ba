// Package history keeps the bounded undo/redo stack of an editing session.
//
// A Stack is owned by exactly one editing session and is not safe for
// concurrent use; callers serialise access the same way they serialise
// edits to the layout itself.
package history

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/venue-seat-layout/internal/model"
)

// DefaultMaxDepth is the number of snapshots kept when New is given a
// non-positive depth.
const DefaultMaxDepth = 50

// Snapshot is the state of the layout after one committed edit.  A snapshot
// is copied on push and never changes afterwards.
type Snapshot struct {
	CanvasState json.RawMessage `json:"canvas_state,omitempty"`
	Zones       []model.Zone    `json:"zones"`
	Timestamp   time.Time       `json:"timestamp"`
	Label       string          `json:"label,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.CanvasState = append(json.RawMessage(nil), s.CanvasState...)
	out.Zones = model.CloneZones(s.Zones)
	return out
}

// Document converts the snapshot into the persisted layout payload.
func (s Snapshot) Document() model.LayoutDocument {
	return model.LayoutDocument{
		CanvasState: append(json.RawMessage(nil), s.CanvasState...),
		Zones:       model.CloneZones(s.Zones),
	}
}

// Stack is a linear undo history with a cursor.  Entries after the cursor
// form the redo branch.
type Stack struct {
	entries  []Snapshot
	pointer  int // index of the current snapshot, -1 when empty
	maxDepth int
	locked   bool
	restore  func(Snapshot)
}

// New returns an empty stack keeping at most maxDepth snapshots.  restore,
// if non-nil, is called with the snapshot Undo or Redo moves to; pushes made
// from inside it are ignored.
func New(maxDepth int, restore func(Snapshot)) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{pointer: -1, maxDepth: maxDepth, restore: restore}
}

// Push records snap as the newest state.  Any redo branch is discarded and
// the oldest entry is evicted once the depth cap is exceeded.  Push reports
// false when it was suppressed because a snapshot is being replayed.
func (s *Stack) Push(snap Snapshot) bool {
	if s.locked {
		return false
	}
	s.entries = append(s.entries[:s.pointer+1], snap.clone())
	if over := len(s.entries) - s.maxDepth; over > 0 {
		// Copy rather than reslice so evicted snapshots can be collected.
		s.entries = append([]Snapshot(nil), s.entries[over:]...)
	}
	s.pointer = len(s.entries) - 1
	return true
}

// Undo steps back one snapshot and returns it.  At the oldest snapshot it
// does nothing and reports false.
func (s *Stack) Undo() (Snapshot, bool) {
	if !s.CanUndo() {
		return Snapshot{}, false
	}
	s.pointer--
	return s.replay(), true
}

// Redo steps forward one snapshot and returns it.  Without a redo branch it
// does nothing and reports false.
func (s *Stack) Redo() (Snapshot, bool) {
	if !s.CanRedo() {
		return Snapshot{}, false
	}
	s.pointer++
	return s.replay(), true
}

func (s *Stack) replay() Snapshot {
	snap := s.entries[s.pointer].clone()
	if s.restore != nil {
		s.locked = true
		defer func() { s.locked = false }()
		s.restore(snap.clone())
	}
	return snap
}

// CanUndo reports whether Undo would move the cursor.
func (s *Stack) CanUndo() bool { return s.pointer > 0 }

// CanRedo reports whether Redo would move the cursor.
func (s *Stack) CanRedo() bool { return s.pointer < len(s.entries)-1 }

// Current returns the snapshot under the cursor.
func (s *Stack) Current() (Snapshot, bool) {
	if s.pointer < 0 {
		return Snapshot{}, false
	}
	return s.entries[s.pointer].clone(), true
}

// Len is the number of snapshots held, including the redo branch.
func (s *Stack) Len() int { return len(s.entries) }

// Position is the zero based index of the current snapshot, -1 when empty.
func (s *Stack) Position() int { return s.pointer }

// Empty reports whether nothing has been pushed yet.
func (s *Stack) Empty() bool { return len(s.entries) == 0 }

// Replaying reports whether a restore callback is running.
func (s *Stack) Replaying() bool { return s.locked }
