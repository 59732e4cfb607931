package workflow

import (
	"time"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Kind distinguishes why a workflow instance exists.
type Kind string

const (
	// KindReview is the standard draft-to-effective lifecycle for a new
	// document.
	KindReview Kind = "review"
	// KindUpVersion runs the lifecycle for a new version that supersedes an
	// effective document once it becomes effective itself.
	KindUpVersion Kind = "up_version"
	// KindObsolescence retires an effective document.
	KindObsolescence Kind = "obsolescence"
)

// KnownKind reports whether k is one of the declared workflow kinds.
func KnownKind(k Kind) bool {
	switch k {
	case KindReview, KindUpVersion, KindObsolescence:
		return true
	}
	return false
}

// Outcome records whether a transition attempt changed state.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Instance tracks one document through the lifecycle. At most one
// non-terminal instance exists per document.
type Instance struct {
	bun.BaseModel `bun:"table:workflow_instances,alias:wi"`

	ID           uuid.UUID    `bun:",pk,type:uuid" json:"id"`
	DocumentID   uuid.UUID    `bun:"document_id,notnull,type:uuid" json:"document_id"`
	Kind         Kind         `bun:"kind,notnull,default:'review'" json:"kind"`
	CurrentState domain.State `bun:"current_state,notnull,default:'draft'" json:"current_state"`
	InitiatedBy  uuid.UUID    `bun:"initiated_by,notnull,type:uuid" json:"initiated_by"`
	InitiatedAt  time.Time    `bun:"initiated_at,nullzero,default:current_timestamp" json:"initiated_at"`

	// ReviewerID and ApproverID are stamped when the respective actor first
	// picks the document up. They anchor the separation-of-duties checks.
	ReviewerID *uuid.UUID `bun:"reviewer_id,type:uuid" json:"reviewer_id,omitempty"`
	ApproverID *uuid.UUID `bun:"approver_id,type:uuid" json:"approver_id,omitempty"`

	ScheduledEffectiveDate *time.Time `bun:"scheduled_effective_date,nullzero" json:"scheduled_effective_date,omitempty"`
	// SupersedesID points at the document this instance replaces when it
	// reaches an effective state.
	SupersedesID *uuid.UUID `bun:"supersedes_document_id,type:uuid" json:"supersedes_document_id,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Transitions []*Transition `bun:"rel:has-many,join:id=workflow_instance_id" json:"transitions,omitempty"`
}

// Active reports whether the instance is still in a non-terminal state.
func (i *Instance) Active() bool {
	return i != nil && !i.CurrentState.IsTerminal()
}

// Clone returns a shallow copy with the Transitions relation dropped.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	cloned := *i
	cloned.Transitions = nil
	return &cloned
}

// Transition is one append-only audit row. Every transition attempt writes
// exactly one, applied or rejected.
type Transition struct {
	bun.BaseModel `bun:"table:workflow_transitions,alias:wt"`

	ID                 uuid.UUID `bun:",pk,type:uuid" json:"id"`
	WorkflowInstanceID uuid.UUID `bun:"workflow_instance_id,type:uuid" json:"workflow_instance_id"`
	DocumentID         uuid.UUID `bun:"document_id,notnull,type:uuid" json:"document_id"`
	// Seq is monotonic per instance. Gaps or reordering in a stored trail
	// indicate tampering.
	Seq             int64           `bun:"seq,notnull" json:"seq"`
	Edge            string          `bun:"edge,notnull" json:"edge"`
	FromState       domain.State    `bun:"from_state" json:"from_state,omitempty"`
	ToState         domain.State    `bun:"to_state" json:"to_state,omitempty"`
	ActorID         uuid.UUID       `bun:"actor_id,type:uuid" json:"actor_id"`
	ActorRole       interfaces.Role `bun:"actor_role,notnull" json:"actor_role"`
	Outcome         Outcome         `bun:"outcome,notnull" json:"outcome"`
	RejectionReason string          `bun:"rejection_reason" json:"rejection_reason,omitempty"`
	Comment         string          `bun:"comment" json:"comment,omitempty"`
	RecordedAt      time.Time       `bun:"recorded_at,nullzero,default:current_timestamp" json:"recorded_at"`
}

// SweepResult summarizes one effectiveness sweep run.
type SweepResult struct {
	Promoted []uuid.UUID    `json:"promoted"`
	Failed   []SweepFailure `json:"failed,omitempty"`
	// Remaining counts due instances the run did not reach before its soft
	// deadline. They are picked up by the next run.
	Remaining int `json:"remaining"`
}

// SweepFailure records one document the sweep could not promote.
type SweepFailure struct {
	DocumentID uuid.UUID `json:"document_id"`
	InstanceID uuid.UUID `json:"instance_id"`
	Reason     string    `json:"reason"`
}
