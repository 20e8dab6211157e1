// Package ledger coordinates the revision model with its persistence: every
// committed session lands in the SQLite store and appends to the audit trail.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/revguard/internal/audit"
	"github.com/ppiankov/revguard/internal/entity"
	"github.com/ppiankov/revguard/internal/journal"
	"github.com/ppiankov/revguard/internal/store"
)

// ErrSessionActive reports an attempt to open a second session while one is
// still running.
var ErrSessionActive = errors.New("ledger: session already active")

// Config wires a Manager to its persistence.
type Config struct {
	Store *store.Store
	Audit *audit.Log
}

// Manager owns the in-memory entity index and runs sessions against it. One
// session at a time; commits persist before the next session can start.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	audit   *audit.Log
	session *entity.Session
	index   map[string]*entity.Entity
}

// New creates a Manager over the given store and audit trail.
func New(cfg Config) *Manager {
	return &Manager{
		store: cfg.Store,
		audit: cfg.Audit,
		index: map[string]*entity.Entity{},
	}
}

// Create publishes, persists, and audits version 1 of a new entity.
func (m *Manager) Create(ctx context.Context, namespace string, fields map[string]any, actor, reason string) (*entity.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := entity.New(namespace, fields)
	if err != nil {
		return nil, err
	}

	rev := store.Revision{
		UID:     e.UID().String(),
		Version: 1,
		Fields:  e.Fields(),
		Actor:   actor,
		Reason:  reason,
	}
	edits := creationEdits(e.Fields())
	if err := m.store.SaveRevision(ctx, rev, edits); err != nil {
		return nil, err
	}
	if err := m.audit.Record(audit.Entry{
		UID:     rev.UID,
		Version: 1,
		Actor:   actor,
		Reason:  reason,
		Edits:   auditEdits(edits),
	}); err != nil {
		return nil, err
	}

	m.index[rev.UID] = e
	return e, nil
}

// Load hydrates the index from the store: the latest persisted revision of
// every uid becomes a live entity. Returns the number of entities loaded.
func (m *Manager) Load(ctx context.Context) (int, error) {
	uids, err := m.store.ListUIDs(ctx)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, raw := range uids {
		uid, err := entity.ParseUID(raw)
		if err != nil {
			return 0, fmt.Errorf("stored uid %q: %w", raw, err)
		}
		v, err := m.store.LatestVersion(ctx, raw)
		if err != nil {
			return 0, err
		}
		rev, _, err := m.store.GetRevision(ctx, raw, v)
		if err != nil {
			return 0, err
		}
		m.index[raw] = entity.Restore(uid, v, rev.Fields)
	}
	return len(uids), nil
}

// Get resolves the latest in-memory revision of a uid.
func (m *Manager) Get(uid string) (*entity.Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.index[uid]
	if !ok {
		return nil, false
	}
	return e.Latest(), true
}

// Store exposes the backing store for read paths.
func (m *Manager) Store() *store.Store { return m.store }

// With runs fn inside a fresh session. On error the session aborts and
// nothing is persisted; on success every committed revision is stored and
// audited, attributed to the actor and reason.
func (m *Manager) With(ctx context.Context, actor, reason string, fn func(*entity.Session) error) ([]entity.CommitResult, error) {
	m.mu.Lock()
	if m.session != nil && !m.session.Ended() {
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	s, err := entity.NewSession(actor, reason)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.session = s
	m.mu.Unlock()

	if err := fn(s); err != nil {
		if aerr := s.Abort(); aerr != nil {
			return nil, fmt.Errorf("%w (abort failed: %v)", err, aerr)
		}
		return nil, err
	}

	results, err := s.Commit()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		if err := m.record(ctx, s, r); err != nil {
			return nil, err
		}
		m.index[r.New.UID().String()] = r.New
	}
	return results, nil
}

func (m *Manager) record(ctx context.Context, s *entity.Session, r entity.CommitResult) error {
	rev := store.Revision{
		UID:     r.New.UID().String(),
		Version: r.New.Version(),
		Fields:  r.New.Fields(),
		Actor:   s.Actor(),
		Reason:  s.Reason(),
		Session: s.UID().String(),
	}
	if err := m.store.SaveRevision(ctx, rev, r.Edits); err != nil {
		return err
	}
	return m.audit.Record(audit.Entry{
		UID:     rev.UID,
		Version: rev.Version,
		Session: rev.Session,
		Actor:   rev.Actor,
		Reason:  rev.Reason,
		Edits:   auditEdits(r.Edits),
	})
}

// creationEdits renders an initial field map as a deterministic edit list.
func creationEdits(fields map[string]any) []entity.FieldEdit {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	edits := make([]entity.FieldEdit, 0, len(keys))
	for _, k := range keys {
		edits = append(edits, entity.FieldEdit{Field: k, Kind: journal.KindSet, Value: fields[k]})
	}
	return edits
}

func auditEdits(edits []entity.FieldEdit) []audit.Edit {
	out := make([]audit.Edit, len(edits))
	for i, e := range edits {
		out[i] = audit.Edit{
			Field:   e.Field,
			Kind:    string(e.Kind),
			Key:     e.Key,
			Index:   e.Index,
			Indexed: e.Indexed,
			Value:   e.Value,
		}
	}
	return out
}
