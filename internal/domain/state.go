package domain

import "strings"

// State represents a lifecycle stage of a controlled document. The set of
// states is fixed at build time; nothing creates or mutates states at runtime.
type State string

const (
	// StateDraft is the single initial state for every workflow instance.
	StateDraft State = "draft"
	// StatePendingReview marks a document submitted by its author and waiting
	// for a reviewer to pick it up.
	StatePendingReview State = "pending_review"
	// StateUnderReview marks a document a reviewer is actively working on.
	StateUnderReview State = "under_review"
	// StateReviewed marks a document whose review completed successfully.
	StateReviewed State = "reviewed"
	// StatePendingApproval marks a reviewed document waiting for an approver.
	StatePendingApproval State = "pending_approval"
	// StateUnderApproval marks a document an approver is actively working on.
	StateUnderApproval State = "under_approval"
	// StateApprovedPendingEffective marks an approved document whose effective
	// date lies in the future; the scheduler promotes it when the date arrives.
	StateApprovedPendingEffective State = "approved_pending_effective"
	// StateApprovedAndEffective marks a document approved with an immediate
	// effective date.
	StateApprovedAndEffective State = "approved_and_effective"
	// StateEffective marks the in-use, authoritative document version.
	StateEffective State = "effective"
	// StateSuperseded marks a document replaced by a newer effective version.
	StateSuperseded State = "superseded"
	// StateObsolete marks a document retired without replacement.
	StateObsolete State = "obsolete"
	// StateTerminated marks a workflow its author cancelled explicitly.
	StateTerminated State = "terminated"
)

// InitialState returns the state every new workflow instance starts in.
func InitialState() State {
	return StateDraft
}

var orderedStates = []State{
	StateDraft,
	StatePendingReview,
	StateUnderReview,
	StateReviewed,
	StatePendingApproval,
	StateUnderApproval,
	StateApprovedPendingEffective,
	StateApprovedAndEffective,
	StateEffective,
	StateSuperseded,
	StateObsolete,
	StateTerminated,
}

var terminalStates = map[State]struct{}{
	StateSuperseded: {},
	StateObsolete:   {},
	StateTerminated: {},
}

// States returns the complete state catalog in lifecycle order.
func States() []State {
	out := make([]State, len(orderedStates))
	copy(out, orderedStates)
	return out
}

// Known reports whether the supplied state belongs to the catalog.
func Known(state State) bool {
	for _, candidate := range orderedStates {
		if candidate == state {
			return true
		}
	}
	return false
}

// IsInitial reports whether the state is the workflow entry point.
func (s State) IsInitial() bool {
	return s == StateDraft
}

// IsTerminal reports whether the state ends the workflow. Effective states are
// deliberately non-terminal: an effective document can still be superseded by
// a replacement or made obsolete.
func (s State) IsTerminal() bool {
	_, ok := terminalStates[s]
	return ok
}

// IsEffective reports whether the document is the in-use version in this
// state. Approval with an immediate date activates the document without
// passing through the scheduler, so both flavours count.
func (s State) IsEffective() bool {
	return s == StateEffective || s == StateApprovedAndEffective
}

// NormalizeState coerces arbitrary state strings into the canonical
// representation. Unknown inputs pass through trimmed and lowercased so
// callers can surface them in errors verbatim.
func NormalizeState(input string) State {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return StateDraft
	}
	return State(trimmed)
}
