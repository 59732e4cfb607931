package workflow

import (
	"context"
	"time"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/google/uuid"
)

// TransitionUpdate pairs an instance mutation with the audit row that
// records it. Expected is the state the instance must still hold when the
// write lands; a mismatch fails the whole update with StateChangedError.
type TransitionUpdate struct {
	Instance *Instance
	Expected domain.State
	Record   *Transition
}

// Repository persists workflow instances and their append-only transition
// trail. Implementations must make each method atomic: an applied state
// change and its audit row commit together or not at all.
type Repository interface {
	// CreateInstance stores a new instance together with its start audit row.
	CreateInstance(ctx context.Context, instance *Instance, record *Transition) (*Instance, error)
	GetInstance(ctx context.Context, id uuid.UUID) (*Instance, error)
	// GetActiveByDocument returns the document's single non-terminal
	// instance, or NotFoundError when the document has none.
	GetActiveByDocument(ctx context.Context, documentID uuid.UUID) (*Instance, error)
	// ListDue returns instances awaiting effectiveness promotion whose
	// scheduled date falls at or before asOf, oldest date first.
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*Instance, error)
	// ApplyTransition commits one state change plus its audit row,
	// assigning the row's per-instance sequence number.
	ApplyTransition(ctx context.Context, update TransitionUpdate) (*Instance, error)
	// ApplyPair commits two state changes and both audit rows atomically.
	// Used when a document becoming effective supersedes another.
	ApplyPair(ctx context.Context, first, second TransitionUpdate) error
	// AppendTransition records a rejected attempt without touching state.
	AppendTransition(ctx context.Context, record *Transition) (*Transition, error)
	HistoryByDocument(ctx context.Context, documentID uuid.UUID) ([]*Transition, error)
	HistoryByInstance(ctx context.Context, instanceID uuid.UUID) ([]*Transition, error)
}
