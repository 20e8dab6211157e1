// Package store persists committed revisions and their staged edits in
// SQLite. Each revision row carries the full field map; the edits table keeps
// the flattened journal that produced it, in write order.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/revguard/internal/entity"
	"github.com/ppiankov/revguard/internal/journal"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// ErrNotFound reports a uid or revision absent from the store.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS revisions (
	uid        TEXT    NOT NULL,
	version    INTEGER NOT NULL,
	fields     TEXT    NOT NULL,
	actor      TEXT    NOT NULL,
	reason     TEXT    NOT NULL,
	session    TEXT    NOT NULL,
	created_at TEXT    NOT NULL,
	PRIMARY KEY (uid, version)
);
CREATE TABLE IF NOT EXISTS edits (
	uid     TEXT    NOT NULL,
	version INTEGER NOT NULL,
	seq     INTEGER NOT NULL,
	field   TEXT    NOT NULL,
	kind    TEXT    NOT NULL,
	key     TEXT    NOT NULL DEFAULT '',
	idx     INTEGER NOT NULL DEFAULT 0,
	indexed INTEGER NOT NULL DEFAULT 0,
	value   TEXT    NOT NULL DEFAULT 'null',
	PRIMARY KEY (uid, version, seq)
);
`

// Revision is one persisted entity revision.
type Revision struct {
	UID       string
	Version   int
	Fields    map[string]any
	Actor     string
	Reason    string
	Session   string
	CreatedAt time.Time
}

// Store is a SQLite-backed revision ledger.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating the schema when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRevision persists one revision and its edits atomically.
func (s *Store) SaveRevision(ctx context.Context, rev Revision, edits []entity.FieldEdit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := json.Marshal(rev.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revisions (uid, version, fields, actor, reason, session, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.UID, rev.Version, string(fields), rev.Actor, rev.Reason, rev.Session,
		rev.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	for i, e := range edits {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode edit value: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO edits (uid, version, seq, field, kind, key, idx, indexed, value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rev.UID, rev.Version, i, e.Field, string(e.Kind), e.Key, e.Index, e.Indexed, string(value))
		if err != nil {
			return fmt.Errorf("insert edit: %w", err)
		}
	}
	return tx.Commit()
}

// LatestVersion reports the newest stored version of a uid.
func (s *Store) LatestVersion(ctx context.Context, uid string) (int, error) {
	var v sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM revisions WHERE uid = ?`, uid).Scan(&v)
	if err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return int(v.Int64), nil
}

// GetRevision loads one revision and its edits.
func (s *Store) GetRevision(ctx context.Context, uid string, version int) (Revision, []entity.FieldEdit, error) {
	var (
		rev       = Revision{UID: uid, Version: version}
		fields    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fields, actor, reason, session, created_at
		 FROM revisions WHERE uid = ? AND version = ?`, uid, version).
		Scan(&fields, &rev.Actor, &rev.Reason, &rev.Session, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, nil, fmt.Errorf("%w: %s@v%d", ErrNotFound, uid, version)
	}
	if err != nil {
		return Revision{}, nil, err
	}
	if err := json.Unmarshal([]byte(fields), &rev.Fields); err != nil {
		return Revision{}, nil, fmt.Errorf("decode fields: %w", err)
	}
	if rev.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return Revision{}, nil, fmt.Errorf("decode created_at: %w", err)
	}

	edits, err := s.loadEdits(ctx, uid, version)
	if err != nil {
		return Revision{}, nil, err
	}
	return rev, edits, nil
}

func (s *Store) loadEdits(ctx context.Context, uid string, version int) ([]entity.FieldEdit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field, kind, key, idx, indexed, value FROM edits
		 WHERE uid = ? AND version = ? ORDER BY seq`, uid, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edits []entity.FieldEdit
	for rows.Next() {
		var (
			e     entity.FieldEdit
			kind  string
			value string
		)
		if err := rows.Scan(&e.Field, &kind, &e.Key, &e.Index, &e.Indexed, &value); err != nil {
			return nil, err
		}
		e.Kind = journal.Kind(kind)
		if err := json.Unmarshal([]byte(value), &e.Value); err != nil {
			return nil, fmt.Errorf("decode edit value: %w", err)
		}
		edits = append(edits, e)
	}
	return edits, rows.Err()
}

// ListRevisions loads every revision of a uid in version order, without edits.
func (s *Store) ListRevisions(ctx context.Context, uid string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, fields, actor, reason, session, created_at
		 FROM revisions WHERE uid = ? ORDER BY version`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var (
			rev       = Revision{UID: uid}
			fields    string
			createdAt string
		)
		if err := rows.Scan(&rev.Version, &fields, &rev.Actor, &rev.Reason, &rev.Session, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &rev.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
		if rev.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return revs, nil
}

// ListUIDs lists every uid with at least one stored revision.
func (s *Store) ListUIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT uid FROM revisions ORDER BY uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
