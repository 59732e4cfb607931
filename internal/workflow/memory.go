package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory implementation for scaffolding and tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	instances   map[uuid.UUID]*Instance
	transitions []*Transition
	sequences   map[uuid.UUID]int64
}

// NewMemoryRepository creates an empty in-memory workflow repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		instances: make(map[uuid.UUID]*Instance),
		sequences: make(map[uuid.UUID]int64),
	}
}

// Put seeds an instance directly, bypassing audit. Test helper.
func (m *MemoryRepository) Put(instance *Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[instance.ID] = instance.Clone()
}

func (m *MemoryRepository) CreateInstance(_ context.Context, instance *Instance, record *Transition) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := instance.Clone()
	m.instances[stored.ID] = stored
	m.appendLocked(record)
	return stored.Clone(), nil
}

func (m *MemoryRepository) GetInstance(_ context.Context, id uuid.UUID) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.instances[id]
	if !ok {
		return nil, &NotFoundError{Resource: "workflow instance", Key: id.String()}
	}
	return rec.Clone(), nil
}

func (m *MemoryRepository) GetActiveByDocument(_ context.Context, documentID uuid.UUID) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := m.activeLocked(documentID)
	if rec == nil {
		return nil, &NotFoundError{Resource: "active workflow", Key: documentID.String()}
	}
	return rec.Clone(), nil
}

func (m *MemoryRepository) ListDue(_ context.Context, asOf time.Time, limit int) ([]*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	due := make([]*Instance, 0)
	for _, rec := range m.instances {
		if rec.CurrentState != domain.StateApprovedPendingEffective {
			continue
		}
		if rec.ScheduledEffectiveDate == nil || rec.ScheduledEffectiveDate.After(asOf) {
			continue
		}
		due = append(due, rec.Clone())
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledEffectiveDate.Before(*due[j].ScheduledEffectiveDate)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MemoryRepository) ApplyTransition(_ context.Context, update TransitionUpdate) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.applyLocked(update)
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

func (m *MemoryRepository) ApplyPair(_ context.Context, first, second TransitionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate both guards before touching anything so a second-leg failure
	// cannot leave the first leg committed.
	for _, update := range []TransitionUpdate{first, second} {
		current, ok := m.instances[update.Instance.ID]
		if !ok {
			return &NotFoundError{Resource: "workflow instance", Key: update.Instance.ID.String()}
		}
		if current.CurrentState != update.Expected {
			return &domain.StateChangedError{
				DocumentID: current.DocumentID,
				Expected:   update.Expected,
				Actual:     current.CurrentState,
			}
		}
	}
	if _, err := m.applyLocked(first); err != nil {
		return err
	}
	if _, err := m.applyLocked(second); err != nil {
		return err
	}
	return nil
}

func (m *MemoryRepository) AppendTransition(_ context.Context, record *Transition) (*Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendLocked(record)
	return cloneTransition(record), nil
}

func (m *MemoryRepository) HistoryByDocument(_ context.Context, documentID uuid.UUID) ([]*Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Transition, 0)
	for _, rec := range m.transitions {
		if rec.DocumentID == documentID {
			out = append(out, cloneTransition(rec))
		}
	}
	return out, nil
}

func (m *MemoryRepository) HistoryByInstance(_ context.Context, instanceID uuid.UUID) ([]*Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Transition, 0)
	for _, rec := range m.transitions {
		if rec.WorkflowInstanceID == instanceID {
			out = append(out, cloneTransition(rec))
		}
	}
	return out, nil
}

func (m *MemoryRepository) applyLocked(update TransitionUpdate) (*Instance, error) {
	current, ok := m.instances[update.Instance.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "workflow instance", Key: update.Instance.ID.String()}
	}
	if current.CurrentState != update.Expected {
		return nil, &domain.StateChangedError{
			DocumentID: current.DocumentID,
			Expected:   update.Expected,
			Actual:     current.CurrentState,
		}
	}

	stored := update.Instance.Clone()
	m.instances[stored.ID] = stored
	m.appendLocked(update.Record)
	return stored, nil
}

func (m *MemoryRepository) appendLocked(record *Transition) {
	if record == nil {
		return
	}
	key := record.WorkflowInstanceID
	if key == uuid.Nil {
		key = record.DocumentID
	}
	m.sequences[key]++
	record.Seq = m.sequences[key]
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.transitions = append(m.transitions, cloneTransition(record))
}

func (m *MemoryRepository) activeLocked(documentID uuid.UUID) *Instance {
	for _, rec := range m.instances {
		if rec.DocumentID == documentID && rec.Active() {
			return rec
		}
	}
	return nil
}

func cloneTransition(src *Transition) *Transition {
	if src == nil {
		return nil
	}
	copied := *src
	return &copied
}
