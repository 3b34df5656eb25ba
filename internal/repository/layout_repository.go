package repository // repository holds data access logic for layouts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/venue-seat-layout/internal/model"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

// layoutsSchema creates the layouts table.  version is the optimistic
// concurrency counter; every accepted save increments it by one.
const layoutsSchema = `CREATE TABLE IF NOT EXISTS layouts (
	id             VARCHAR(64)  NOT NULL PRIMARY KEY,
	payload        JSON         NOT NULL,
	version        BIGINT       NOT NULL,
	last_edited_by VARCHAR(128) NULL,
	updated_at     DATETIME(3)  NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// LayoutRepo stores layout documents in MySQL.  It implements
// session.Store.
type LayoutRepo struct {
	db  *sql.DB          // db is the underlying connection pool
	now func() time.Time // now stamps updated_at
}

// NewLayoutRepo constructs a LayoutRepo with the given DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo {
	return &LayoutRepo{db: db, now: time.Now}
}

// EnsureSchema creates the layouts table when it does not exist yet.
func (r *LayoutRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, layoutsSchema)
	return err
}

// Get returns one layout row or ErrLayoutNotFound.
func (r *LayoutRepo) Get(ctx context.Context, id string) (*model.Layout, error) {
	const q = `SELECT id, payload, version, last_edited_by, updated_at FROM layouts WHERE id = ?`
	var (
		l       model.Layout
		payload []byte
		editor  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &payload, &l.Version, &editor, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, err
	}
	l.Payload = json.RawMessage(payload)
	l.LastEditedBy = editor.String
	return &l, nil
}

// Load implements session.Store.
func (r *LayoutRepo) Load(ctx context.Context, layoutID string) (session.Document, error) {
	l, err := r.Get(ctx, layoutID)
	if err != nil {
		return session.Document{}, err
	}
	return session.Document{
		Payload:      l.Payload,
		Version:      l.Version,
		LastEditedBy: l.LastEditedBy,
		UpdatedAt:    l.UpdatedAt,
	}, nil
}

// Save implements session.Store.  The stored version is read under a row
// lock and compared with req.ExpectedVersion unless req.Force is set; a
// mismatch returns *session.ConflictError and leaves the row untouched.
// A layout that does not exist is created when ExpectedVersion is 0.
func (r *LayoutRepo) Save(ctx context.Context, req session.SaveRequest) (version int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		current int64
		editor  sql.NullString
		exists  = true
	)
	err = tx.QueryRowContext(ctx, `SELECT version, last_edited_by FROM layouts WHERE id = ? FOR UPDATE`, req.LayoutID).
		Scan(&current, &editor)
	if errors.Is(err, sql.ErrNoRows) {
		exists, err = false, nil
	}
	if err != nil {
		return 0, err
	}

	conflict := func() error {
		return &session.ConflictError{
			LayoutID:        req.LayoutID,
			ExpectedVersion: req.ExpectedVersion,
			CurrentVersion:  current,
			LastEditedBy:    editor.String,
		}
	}
	if !req.Force && req.ExpectedVersion != current {
		err = conflict()
		return 0, err
	}

	next := current + 1
	now := r.now().UTC()
	if exists {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			`UPDATE layouts SET payload = ?, version = ?, last_edited_by = ?, updated_at = ? WHERE id = ? AND version = ?`,
			string(req.Payload), next, req.Editor, now, req.LayoutID, current)
		if err != nil {
			return 0, err
		}
		var n int64
		if n, err = res.RowsAffected(); err != nil {
			return 0, err
		}
		if n == 0 {
			err = conflict()
			return 0, err
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO layouts (id, payload, version, last_edited_by, updated_at) VALUES (?, ?, ?, ?, ?)`,
			req.LayoutID, string(req.Payload), next, req.Editor, now)
		if isDuplicateKey(err) {
			err = conflict()
			return 0, err
		}
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}
