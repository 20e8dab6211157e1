package daemon

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/revguard/internal/entity"
	"github.com/ppiankov/revguard/internal/journal"
	"github.com/ppiankov/revguard/internal/ledger"
)

// BatchOp is one operation in a batch file. Ops with a namespace create a
// new entity from Fields; ops with a uid edit an existing one. Key addresses
// an entry inside a mapping field; Delete removes the field or key.
type BatchOp struct {
	UID       string         `yaml:"uid,omitempty"`
	Namespace string         `yaml:"namespace,omitempty"`
	Fields    map[string]any `yaml:"fields,omitempty"`
	Field     string         `yaml:"field,omitempty"`
	Key       string         `yaml:"key,omitempty"`
	Value     any            `yaml:"value,omitempty"`
	Delete    bool           `yaml:"delete,omitempty"`
}

// Batch is a YAML file dropped into the inbox: a set of operations applied
// in one session, attributed to an actor with a reason.
type Batch struct {
	Actor  string    `yaml:"actor"`
	Reason string    `yaml:"reason"`
	Ops    []BatchOp `yaml:"ops"`
}

// LoadBatch parses a batch file.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if b.Actor == "" {
		return nil, fmt.Errorf("batch %s: actor is required", path)
	}
	if len(b.Ops) == 0 {
		return nil, fmt.Errorf("batch %s: no ops", path)
	}
	return &b, nil
}

// Apply runs the batch against the ledger: creations first, then all edits
// in a single session. An edit failure aborts the whole session.
func (b *Batch) Apply(ctx context.Context, m *ledger.Manager) ([]entity.CommitResult, error) {
	var edits []BatchOp
	for i, op := range b.Ops {
		switch {
		case op.Namespace != "":
			if _, err := m.Create(ctx, op.Namespace, op.Fields, b.Actor, b.Reason); err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
		case op.UID != "":
			edits = append(edits, op)
		default:
			return nil, fmt.Errorf("op %d: needs uid or namespace", i)
		}
	}

	if len(edits) == 0 {
		return nil, nil
	}
	return m.With(ctx, b.Actor, b.Reason, func(s *entity.Session) error {
		for i, op := range edits {
			if err := applyEdit(s, m, op); err != nil {
				return fmt.Errorf("edit %d (%s): %w", i, op.UID, err)
			}
		}
		return nil
	})
}

func applyEdit(s *entity.Session, m *ledger.Manager, op BatchOp) error {
	e, ok := m.Get(op.UID)
	if !ok {
		return fmt.Errorf("unknown entity")
	}
	j, err := s.Journal(e)
	if err != nil {
		return err
	}

	if op.Key != "" {
		v, err := j.Get(op.Field)
		if err != nil {
			return err
		}
		mp, ok := v.(*journal.Map[string, any])
		if !ok {
			return fmt.Errorf("field %q is not a mapping", op.Field)
		}
		if op.Delete {
			return mp.Delete(op.Key)
		}
		mp.Set(op.Key, op.Value)
		return nil
	}

	if op.Delete {
		return j.Set(op.Field, nil)
	}
	return j.Set(op.Field, op.Value)
}
