// Package session implements the optimistic concurrency protocol an editor
// uses to load and save one layout: it remembers the version it last read,
// sends it back with every save and turns a stale version into a conflict
// the user has to resolve by reloading or force-saving.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is how long unsaved changes sit before AutoSave writes them.
const DefaultDebounce = 30 * time.Second

var (
	// ErrSaveInFlight is returned when a save is attempted while another one
	// has not finished.  The attempt is dropped, not queued.
	ErrSaveInFlight = errors.New("session: save already in flight")
	// ErrNotLoaded is returned by Save before the first successful Load.
	ErrNotLoaded = errors.New("session: layout not loaded")
)

// State summarises where the session stands.
type State int

const (
	StateClean State = iota
	StateDirty
	StateSaving
	StateConflict
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateConflict:
		return "conflict"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateClean, StateDirty, StateSaving, StateConflict} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("session: unknown state %q", b)
}

// Status is a point in time view of a Session.
type Status struct {
	LayoutID     string         `json:"layout_id"`
	State        State          `json:"state"`
	Version      int64          `json:"version"`
	Dirty        bool           `json:"dirty"`
	DirtySince   *time.Time     `json:"dirty_since,omitempty"`
	LastEditedBy string         `json:"last_edited_by,omitempty"`
	LastSavedAt  *time.Time     `json:"last_saved_at,omitempty"`
	Conflict     *ConflictError `json:"conflict,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger auto-save failures are reported to.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEditor sets the identity recorded as last editor on every save.
func WithEditor(editor string) Option {
	return func(s *Session) { s.editor = editor }
}

// Session tracks the cached version and unsaved changes of one layout.  It
// is safe for concurrent use, so the auto-save loop and explicit saves may
// run from different goroutines; at most one save is in flight at a time.
type Session struct {
	store    Store
	layoutID string
	editor   string
	debounce time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu           sync.Mutex
	loaded       bool
	payload      json.RawMessage
	version      int64
	lastEditedBy string
	revision     uint64 // bumped by every Update
	saved        uint64 // revision the store last acknowledged
	dirtySince   time.Time
	lastSavedAt  time.Time
	inFlight     bool
	conflict     *ConflictError
}

// New returns an unloaded session for layoutID.
func New(store Store, layoutID string, opts ...Option) *Session {
	s := &Session{
		store:    store,
		layoutID: layoutID,
		debounce: DefaultDebounce,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LayoutID returns the layout this session edits.
func (s *Session) LayoutID() string { return s.layoutID }

// Load fetches the layout and caches its version.  A layout the store has
// never seen loads as an empty document at version 0; the first save
// creates it.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.mu.Unlock()

	doc, err := s.store.Load(ctx, s.layoutID)
	if errors.Is(err, ErrNotFound) {
		doc, err = Document{}, nil
	}
	if err != nil {
		return fmt.Errorf("session: load %s: %w", s.layoutID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.payload = doc.Payload
	s.version = doc.Version
	s.lastEditedBy = doc.LastEditedBy
	s.saved = s.revision
	s.dirtySince = time.Time{}
	s.conflict = nil
	return nil
}

// Reload discards local changes and loads the stored layout again.  It is
// one of the two ways out of a conflict.
func (s *Session) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Update replaces the local payload and marks the session dirty.
func (s *Session) Update(payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision == s.saved {
		s.dirtySince = s.now()
	}
	s.revision++
	s.payload = append(json.RawMessage(nil), payload...)
}

// Payload returns the local copy of the layout.
func (s *Session) Payload() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(json.RawMessage(nil), s.payload...)
}

// Version returns the cached server version.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Dirty reports whether there are changes the store has not acknowledged.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.saved
}

// Conflict returns the unresolved conflict, if any.
func (s *Session) Conflict() *ConflictError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflict == nil {
		return nil
	}
	c := *s.conflict
	return &c
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		LayoutID:     s.layoutID,
		State:        s.stateLocked(),
		Version:      s.version,
		Dirty:        s.revision != s.saved,
		LastEditedBy: s.lastEditedBy,
	}
	if st.Dirty {
		t := s.dirtySince
		st.DirtySince = &t
	}
	if !s.lastSavedAt.IsZero() {
		t := s.lastSavedAt
		st.LastSavedAt = &t
	}
	if s.conflict != nil {
		c := *s.conflict
		st.Conflict = &c
	}
	return st
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.inFlight:
		return StateSaving
	case s.conflict != nil:
		return StateConflict
	case s.revision != s.saved:
		return StateDirty
	}
	return StateClean
}

// Save submits the local payload with the cached version.  A stale version
// yields a *ConflictError and leaves the changes in place.
func (s *Session) Save(ctx context.Context) (int64, error) {
	return s.save(ctx, false)
}

// ForceSave overwrites the stored layout whatever its version.  Deciding who
// may force-save is left to the caller.
func (s *Session) ForceSave(ctx context.Context) (int64, error) {
	return s.save(ctx, true)
}

func (s *Session) save(ctx context.Context, force bool) (int64, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return 0, ErrNotLoaded
	}
	if s.inFlight {
		s.mu.Unlock()
		return 0, ErrSaveInFlight
	}
	s.inFlight = true
	req := SaveRequest{
		LayoutID:        s.layoutID,
		Payload:         append(json.RawMessage(nil), s.payload...),
		ExpectedVersion: s.version,
		Force:           force,
		Editor:          s.editor,
	}
	rev := s.revision
	s.mu.Unlock()

	version, err := s.store.Save(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		if ce, ok := AsConflict(err); ok {
			c := *ce
			s.conflict = &c
			if c.LastEditedBy != "" {
				s.lastEditedBy = c.LastEditedBy
			}
			return 0, err
		}
		return 0, fmt.Errorf("session: save %s: %w", s.layoutID, err)
	}
	s.version = version
	s.saved = rev
	s.conflict = nil
	s.lastEditedBy = s.editor
	s.lastSavedAt = s.now()
	if s.revision != s.saved {
		// Edits made while the save was running are still pending.
		s.dirtySince = s.lastSavedAt
	} else {
		s.dirtySince = time.Time{}
	}
	return version, nil
}

// AutoSave saves when changes have been pending for at least the debounce
// window, nothing is in flight and no conflict is waiting for the user.  It
// reports whether a save was attempted.  Conflicts are returned but never
// resolved; other failures are logged and swallowed.
func (s *Session) AutoSave(ctx context.Context) (bool, error) {
	s.mu.Lock()
	due := s.loaded && !s.inFlight && s.conflict == nil &&
		s.revision != s.saved && s.now().Sub(s.dirtySince) >= s.debounce
	s.mu.Unlock()
	if !due {
		return false, nil
	}

	_, err := s.save(ctx, false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSaveInFlight):
		return false, nil
	}
	if ce, ok := AsConflict(err); ok {
		s.logger.Printf("autosave: layout %s: conflict, stored version %d", s.layoutID, ce.CurrentVersion)
		return true, err
	}
	s.logger.Printf("autosave: layout %s: %v", s.layoutID, err)
	return true, nil
}

// Run calls AutoSave every interval until ctx is cancelled.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = s.AutoSave(ctx)
		}
	}
}
