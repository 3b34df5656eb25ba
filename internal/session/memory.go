package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store.  It applies the same version rules as
// the MySQL repository and is used for tests and LAYOUT_STORE=memory.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document), now: time.Now}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, layoutID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[layoutID]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Payload = append(json.RawMessage(nil), doc.Payload...)
	return doc, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, req SaveRequest) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.docs[req.LayoutID]
	if !req.Force && req.ExpectedVersion != cur.Version {
		return 0, &ConflictError{
			LayoutID:        req.LayoutID,
			ExpectedVersion: req.ExpectedVersion,
			CurrentVersion:  cur.Version,
			LastEditedBy:    cur.LastEditedBy,
		}
	}
	next := Document{
		Payload:      append(json.RawMessage(nil), req.Payload...),
		Version:      cur.Version + 1,
		LastEditedBy: req.Editor,
		UpdatedAt:    m.now().UTC(),
	}
	m.docs[req.LayoutID] = next
	return next.Version, nil
}

// Put stores doc as is, replacing any existing layout.
func (m *MemoryStore) Put(layoutID string, doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.Payload = append(json.RawMessage(nil), doc.Payload...)
	m.docs[layoutID] = doc
}
