// Package editor keeps server-held editing sessions.  Each session pairs
// one undo history with one persistence session for a single layout and is
// addressed by a random ID handed to the client.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-seat-layout/internal/history"
	"github.com/iliyamo/venue-seat-layout/internal/model"
	"github.com/iliyamo/venue-seat-layout/internal/seatgen"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

var (
	// ErrSessionNotFound is returned for unknown or closed session IDs.
	ErrSessionNotFound = errors.New("editor: session not found")
	// ErrZoneNotFound is returned when a zone ID is not in the current document.
	ErrZoneNotFound = errors.New("editor: zone not found")
)

// Config tunes the manager.  Zero values select the package defaults.
type Config struct {
	HistoryDepth     int
	AutoSaveDebounce time.Duration
	AutoSaveInterval time.Duration
	IdleTimeout      time.Duration // 0 keeps idle sessions forever
}

// Manager owns every open editing session.
type Manager struct {
	store  session.Store
	cfg    Config
	logger *log.Logger
	now    func() time.Time
	newID  func() string

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// NewManager returns a manager saving through store.
func NewManager(store session.Store, cfg Config, logger *log.Logger) *Manager {
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = history.DefaultMaxDepth
	}
	if cfg.AutoSaveDebounce <= 0 {
		cfg.AutoSaveDebounce = session.DefaultDebounce
	}
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:      store,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
		workspaces: make(map[string]*workspace),
	}
}

// workspace is one open session.  mu serialises edits; saves go through
// the persistence session, which guards itself.
type workspace struct {
	id       string
	layoutID string
	editor   string

	mu       sync.Mutex
	history  *history.Stack
	persist  *session.Session
	lastUsed time.Time
	closed   bool
}

// View is what the API returns after every session operation.
type View struct {
	SessionID       string               `json:"session_id"`
	LayoutID        string               `json:"layout_id"`
	Editor          string               `json:"editor"`
	Document        model.LayoutDocument `json:"document"`
	Label           string               `json:"label,omitempty"`
	CanUndo         bool                 `json:"can_undo"`
	CanRedo         bool                 `json:"can_redo"`
	HistoryLength   int                  `json:"history_length"`
	HistoryPosition int                  `json:"history_position"`
	Persistence     session.Status       `json:"persistence"`
}

// Change is one committed edit.
type Change struct {
	CanvasState json.RawMessage `json:"canvas_state,omitempty"`
	Zones       []model.Zone    `json:"zones"`
	Label       string          `json:"label,omitempty"`
}

// Open loads layoutID and starts a session for editor.  A layout that was
// never saved opens as an empty document.
func (m *Manager) Open(ctx context.Context, layoutID, editor string) (View, error) {
	ws := &workspace{
		id:       m.newID(),
		layoutID: layoutID,
		editor:   editor,
		lastUsed: m.now(),
	}
	ws.persist = session.New(m.store, layoutID,
		session.WithEditor(editor),
		session.WithDebounce(m.cfg.AutoSaveDebounce),
		session.WithLogger(m.logger),
		session.WithClock(m.now),
	)
	ws.history = history.New(m.cfg.HistoryDepth, func(snap history.Snapshot) {
		m.apply(ws, snap)
	})
	if err := ws.persist.Load(ctx); err != nil {
		return View{}, err
	}
	doc, err := decodeDocument(ws.persist.Payload())
	if err != nil {
		return View{}, fmt.Errorf("editor: layout %s: %w", layoutID, err)
	}
	ws.history.Push(history.Snapshot{
		CanvasState: doc.CanvasState,
		Zones:       doc.Zones,
		Timestamp:   m.now().UTC(),
		Label:       "opened",
	})

	m.mu.Lock()
	m.workspaces[ws.id] = ws
	m.mu.Unlock()
	m.logger.Printf("editor: %s opened layout %s as session %s", editor, layoutID, ws.id)
	return m.view(ws), nil
}

func (m *Manager) get(id string) (*workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ws, nil
}

// with runs fn on the workspace under its lock and returns the resulting view.
func (m *Manager) with(id string, fn func(ws *workspace) error) (View, error) {
	ws, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return View{}, ErrSessionNotFound
	}
	ws.lastUsed = m.now()
	if err := fn(ws); err != nil {
		return m.viewLocked(ws), err
	}
	return m.viewLocked(ws), nil
}

// Status returns the current view of a session.
func (m *Manager) Status(id string) (View, error) {
	return m.with(id, func(*workspace) error { return nil })
}

// Commit records change as a new history entry and marks the layout dirty.
func (m *Manager) Commit(id string, change Change) (View, error) {
	return m.with(id, func(ws *workspace) error {
		snap := history.Snapshot{
			CanvasState: change.CanvasState,
			Zones:       change.Zones,
			Timestamp:   m.now().UTC(),
			Label:       change.Label,
		}
		if snap.Zones == nil {
			snap.Zones = []model.Zone{}
		}
		if !ws.history.Push(snap) {
			return nil
		}
		m.apply(ws, snap)
		return nil
	})
}

// GenerateZone regenerates the seats of one zone from its polygon with opts
// and commits the result.  Seat IDs are prefixed with the zone ID so they
// stay unique across the document.
func (m *Manager) GenerateZone(id, zoneID string, opts seatgen.Options) (View, error) {
	return m.with(id, func(ws *workspace) error {
		cur, _ := ws.history.Current()
		idx := -1
		for i, z := range cur.Zones {
			if z.ID == zoneID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrZoneNotFound
		}
		zone := &cur.Zones[idx]
		o := opts
		zone.Options = &o
		zone.Seats = seatgen.Generate(zone.Polygon, opts)
		// Labels repeat across zones without a section prefix; IDs must not.
		for i := range zone.Seats {
			zone.Seats[i].ID = zone.ID + "-" + zone.Seats[i].ID
		}

		snap := history.Snapshot{
			CanvasState: cur.CanvasState,
			Zones:       cur.Zones,
			Timestamp:   m.now().UTC(),
			Label:       "generate " + zone.Name,
		}
		if ws.history.Push(snap) {
			m.apply(ws, snap)
		}
		return nil
	})
}

// Undo steps back one history entry.  At the oldest entry it changes
// nothing.
func (m *Manager) Undo(id string) (View, error) {
	return m.with(id, func(ws *workspace) error {
		ws.history.Undo()
		return nil
	})
}

// Redo steps forward one history entry.  Without a redo branch it changes
// nothing.
func (m *Manager) Redo(id string) (View, error) {
	return m.with(id, func(ws *workspace) error {
		ws.history.Redo()
		return nil
	})
}

// Save writes the current document with the cached version.  A stale
// version returns a *session.ConflictError together with the view.
func (m *Manager) Save(ctx context.Context, id string) (View, error) {
	return m.save(ctx, id, false)
}

// ForceSave overwrites the stored layout regardless of its version.
func (m *Manager) ForceSave(ctx context.Context, id string) (View, error) {
	return m.save(ctx, id, true)
}

func (m *Manager) save(ctx context.Context, id string, force bool) (View, error) {
	ws, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	if force {
		_, err = ws.persist.ForceSave(ctx)
	} else {
		_, err = ws.persist.Save(ctx)
	}
	if err == nil {
		m.logger.Printf("editor: session %s saved layout %s at v%d (force=%t)", id, ws.layoutID, ws.persist.Version(), force)
	}
	view, verr := m.Status(id)
	if verr != nil {
		return View{}, verr
	}
	return view, err
}

// Reload discards local changes and loads the stored layout.  The loaded
// document becomes a new history entry, so the discarded edits can still
// be reached with Undo.
func (m *Manager) Reload(ctx context.Context, id string) (View, error) {
	return m.with(id, func(ws *workspace) error {
		if err := ws.persist.Reload(ctx); err != nil {
			return err
		}
		doc, err := decodeDocument(ws.persist.Payload())
		if err != nil {
			return fmt.Errorf("editor: layout %s: %w", ws.layoutID, err)
		}
		ws.history.Push(history.Snapshot{
			CanvasState: doc.CanvasState,
			Zones:       doc.Zones,
			Timestamp:   m.now().UTC(),
			Label:       "reloaded",
		})
		return nil
	})
}

// Close forgets a session.  Unsaved changes are dropped.
func (m *Manager) Close(id string) (View, error) {
	ws, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return View{}, ErrSessionNotFound
	}
	ws.closed = true
	m.mu.Lock()
	delete(m.workspaces, id)
	m.mu.Unlock()
	view := m.viewLocked(ws)
	if view.Persistence.Dirty {
		m.logger.Printf("editor: session %s closed with unsaved changes to layout %s", id, view.LayoutID)
	}
	return view, nil
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// AutoSaveAll gives every open session a chance to auto-save and closes
// sessions idle for longer than IdleTimeout.  A dirty session only expires
// once it is stuck in a conflict, which auto-save never resolves; its
// unsaved edits are dropped.
func (m *Manager) AutoSaveAll(ctx context.Context) {
	m.mu.Lock()
	open := make([]*workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		open = append(open, ws)
	}
	m.mu.Unlock()

	for _, ws := range open {
		if _, err := ws.persist.AutoSave(ctx); err != nil {
			m.logger.Printf("editor: session %s: auto-save needs attention: %v", ws.id, err)
		}
		if m.cfg.IdleTimeout > 0 {
			m.expire(ws)
		}
	}
}

// expire removes ws if it is still idle.  The check and the removal happen
// under ws.mu so an edit landing in between keeps the session open.
func (m *Manager) expire(ws *workspace) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed || m.now().Sub(ws.lastUsed) <= m.cfg.IdleTimeout {
		return
	}
	conflict := ws.persist.Conflict()
	if ws.persist.Dirty() && conflict == nil {
		return
	}
	ws.closed = true
	m.mu.Lock()
	delete(m.workspaces, ws.id)
	m.mu.Unlock()
	if conflict != nil {
		m.logger.Printf("editor: session %s expired in conflict, unsaved edits to layout %s dropped: %v", ws.id, ws.layoutID, conflict)
		return
	}
	m.logger.Printf("editor: session %s expired", ws.id)
}

// Flush saves every session with pending changes, ignoring the debounce
// window.  Sessions waiting on a conflict are left alone.  It returns the
// number of sessions that failed to save.
func (m *Manager) Flush(ctx context.Context) int {
	m.mu.Lock()
	open := make([]*workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		open = append(open, ws)
	}
	m.mu.Unlock()

	failed := 0
	for _, ws := range open {
		if !ws.persist.Dirty() || ws.persist.Conflict() != nil {
			continue
		}
		if _, err := ws.persist.Save(ctx); err != nil {
			failed++
			m.logger.Printf("editor: session %s: flush: %v", ws.id, err)
		}
	}
	return failed
}

// Run calls AutoSaveAll every AutoSaveInterval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	t := time.NewTicker(m.cfg.AutoSaveInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.AutoSaveAll(ctx)
		}
	}
}

// apply hands snap to the persistence session as the new local payload.
func (m *Manager) apply(ws *workspace, snap history.Snapshot) {
	payload, err := json.Marshal(snap.Document())
	if err != nil {
		m.logger.Printf("editor: session %s: encode snapshot: %v", ws.id, err)
		return
	}
	ws.persist.Update(payload)
}

func (m *Manager) view(ws *workspace) View {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return m.viewLocked(ws)
}

func (m *Manager) viewLocked(ws *workspace) View {
	v := View{
		SessionID:       ws.id,
		LayoutID:        ws.layoutID,
		Editor:          ws.editor,
		CanUndo:         ws.history.CanUndo(),
		CanRedo:         ws.history.CanRedo(),
		HistoryLength:   ws.history.Len(),
		HistoryPosition: ws.history.Position(),
		Persistence:     ws.persist.Status(),
	}
	if snap, ok := ws.history.Current(); ok {
		v.Document = snap.Document()
		v.Label = snap.Label
	}
	if v.Document.Zones == nil {
		v.Document.Zones = []model.Zone{}
	}
	return v
}

func decodeDocument(payload json.RawMessage) (model.LayoutDocument, error) {
	var doc model.LayoutDocument
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &doc); err != nil {
			return model.LayoutDocument{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	if doc.Zones == nil {
		doc.Zones = []model.Zone{}
	}
	return doc, nil
}
