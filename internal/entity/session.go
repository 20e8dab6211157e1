package entity

import (
	"time"

	"github.com/ppiankov/revguard/internal/boundary"
	"github.com/ppiankov/revguard/internal/guard"
)

var sessionUIDs = NewFactory()

// CommitResult records one entity's transition out of a committed session.
type CommitResult struct {
	Old   *Entity
	New   *Entity
	Edits []FieldEdit
}

// Session groups journals for a unit of work attributed to an actor with a
// reason. Commit publishes every dirty journal; Abort discards them. An ended
// session rejects further use.
type Session struct {
	uid     UID
	actor   string
	reason  string
	started time.Time

	journals map[UID]*Journal
	order    []UID
	ended    bool

	bnd    *boundary.Boundary
	caller boundary.Caller
}

// NewSession opens a session for the given actor and reason.
func NewSession(actor, reason string) (*Session, error) {
	uid, err := sessionUIDs.New("session")
	if err != nil {
		return nil, err
	}
	s := &Session{
		uid:      uid,
		actor:    actor,
		reason:   reason,
		started:  time.Now(),
		journals: map[UID]*Journal{},
	}
	s.bnd = boundary.New(s, boundary.Config{
		DecorateNonPublic: true,
		DecoratePublic:    true,
		Wrapper:           guard.RequireAttr("ended", false).WithMessage("session has ended").Guard(),
	})
	s.bnd.Register("Journal", s.opJournal)
	s.bnd.Register("Commit", s.opCommit)
	s.bnd.Register("Abort", s.opAbort)
	s.bnd.Register("end", s.opEnd)
	s.caller = s.bnd.Caller()
	return s, nil
}

// Attribute exposes the session lifecycle to precondition checks.
func (s *Session) Attribute(name string) (any, bool) {
	if name == "ended" {
		return s.ended, true
	}
	return nil, false
}

func (s *Session) String() string { return s.uid.String() }

func (s *Session) UID() UID           { return s.uid }
func (s *Session) Actor() string      { return s.actor }
func (s *Session) Reason() string     { return s.reason }
func (s *Session) Started() time.Time { return s.started }
func (s *Session) Ended() bool        { return s.ended }

// Journal returns the session's journal for the entity, opening one on first
// use. Journals are keyed by UID, so all edits to an entity within the
// session share one journal.
func (s *Session) Journal(e *Entity) (*Journal, error) {
	res, err := s.bnd.Exported().Call("Journal", e)
	if err != nil {
		return nil, err
	}
	return res.(*Journal), nil
}

// Commit publishes every dirty journal, ends the clean ones, and ends the
// session. The results cover dirty journals only.
func (s *Session) Commit() ([]CommitResult, error) {
	res, err := s.bnd.Exported().Call("Commit")
	if err != nil {
		return nil, err
	}
	return res.([]CommitResult), nil
}

// Abort discards all staged edits and ends the session.
func (s *Session) Abort() error {
	_, err := s.bnd.Exported().Call("Abort")
	return err
}

// End commits when any journal is dirty, otherwise aborts.
func (s *Session) End() ([]CommitResult, error) {
	for _, uid := range s.order {
		if s.journals[uid].Dirty() {
			return s.Commit()
		}
	}
	return nil, s.Abort()
}

func (s *Session) opJournal(c *guard.Call) (any, error) {
	e := c.Args[0].(*Entity)
	if j, ok := s.journals[e.UID()]; ok {
		return j, nil
	}
	j := NewJournal(e)
	s.journals[e.UID()] = j
	s.order = append(s.order, e.UID())
	return j, nil
}

func (s *Session) opCommit(c *guard.Call) (any, error) {
	var results []CommitResult
	for _, uid := range s.order {
		j := s.journals[uid]
		if !j.Dirty() {
			if err := j.abort(); err != nil {
				return nil, err
			}
			continue
		}
		old := j.Entity()
		edits := j.Edits()
		succ, err := j.Commit()
		if err != nil {
			return nil, err
		}
		results = append(results, CommitResult{Old: old, New: succ, Edits: edits})
	}
	if _, err := s.caller.Call("end"); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Session) opAbort(c *guard.Call) (any, error) {
	for _, uid := range s.order {
		if err := s.journals[uid].abort(); err != nil {
			return nil, err
		}
	}
	s.journals = map[UID]*Journal{}
	s.order = nil
	_, err := s.caller.Call("end")
	return nil, err
}

func (s *Session) opEnd(c *guard.Call) (any, error) {
	s.ended = true
	return nil, nil
}
