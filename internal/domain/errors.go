package domain

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when the requested edge does not exist in
// the lifecycle graph at all.
var ErrInvalidTransition = errors.New("docflow: transition does not exist")

// ErrUnauthorized is returned when the acting user's role does not appear in
// the edge's allowed role set.
var ErrUnauthorized = errors.New("docflow: actor role not permitted for transition")

// ErrRoleConflict is returned when the separation-of-duties rule would be
// violated, for example the document author attempting to review their own
// document.
var ErrRoleConflict = errors.New("docflow: role separation violated")

// ErrStateChanged is returned when the document moved to a different state
// between the caller reading it and submitting the transition.
var ErrStateChanged = errors.New("docflow: document state changed since read")

// ErrMissingEffectiveDate is returned when an approval is submitted without
// an effective date.
var ErrMissingEffectiveDate = errors.New("docflow: approval requires an effective date")

// ErrInvalidEffectiveDate is returned when the effective date falls before
// the permitted window.
var ErrInvalidEffectiveDate = errors.New("docflow: effective date is in the past")

// ErrCommentRequired is returned when an edge that demands a justification
// comment is applied without one.
var ErrCommentRequired = errors.New("docflow: transition requires a comment")

// ErrDependentsExist is returned when obsolescence is requested for a
// document that other effective documents still reference.
var ErrDependentsExist = errors.New("docflow: document has active dependents")

// ErrNoActiveWorkflow is returned when a transition is requested for a
// document with no live workflow instance.
var ErrNoActiveWorkflow = errors.New("docflow: no active workflow for document")

// ErrWorkflowExists is returned when a workflow is started for a document
// that already has a live instance.
var ErrWorkflowExists = errors.New("docflow: document already has an active workflow")

// StateChangedError carries the state the caller saw and the state the
// instance actually holds. It unwraps to ErrStateChanged.
type StateChangedError struct {
	DocumentID uuid.UUID
	Expected   State
	Actual     State
}

func (e *StateChangedError) Error() string {
	return fmt.Sprintf("docflow: document %s is in state %q, expected %q", e.DocumentID, e.Actual, e.Expected)
}

func (e *StateChangedError) Unwrap() error { return ErrStateChanged }

// DeniedError describes an authorization failure for a specific edge. It
// unwraps to ErrUnauthorized.
type DeniedError struct {
	Edge  string
	Role  interfaces.Role
	Actor uuid.UUID
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("docflow: role %q may not apply %q", e.Role, e.Edge)
}

func (e *DeniedError) Unwrap() error { return ErrUnauthorized }

// RoleConflictError describes a separation-of-duties violation. It unwraps
// to ErrRoleConflict.
type RoleConflictError struct {
	Edge   string
	Actor  uuid.UUID
	Reason string
}

func (e *RoleConflictError) Error() string {
	return fmt.Sprintf("docflow: %s on edge %q", e.Reason, e.Edge)
}

func (e *RoleConflictError) Unwrap() error { return ErrRoleConflict }
