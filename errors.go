package docflow

import "github.com/goliatone/go-docflow/internal/domain"

// Lifecycle errors surfaced by the workflow service. Callers match them with
// errors.Is; richer detail is available through errors.As on the typed
// variants below.
var (
	ErrInvalidTransition    = domain.ErrInvalidTransition
	ErrUnauthorized         = domain.ErrUnauthorized
	ErrRoleConflict         = domain.ErrRoleConflict
	ErrStateChanged         = domain.ErrStateChanged
	ErrMissingEffectiveDate = domain.ErrMissingEffectiveDate
	ErrInvalidEffectiveDate = domain.ErrInvalidEffectiveDate
	ErrCommentRequired      = domain.ErrCommentRequired
	ErrDependentsExist      = domain.ErrDependentsExist
	ErrNoActiveWorkflow     = domain.ErrNoActiveWorkflow
	ErrWorkflowExists       = domain.ErrWorkflowExists
)

// StateChangedError reports the expected and actual state of a document
// whose transition lost a concurrency race.
type StateChangedError = domain.StateChangedError

// DeniedError reports the actor and edge behind an authorization failure.
type DeniedError = domain.DeniedError

// RoleConflictError reports a separation of duties violation.
type RoleConflictError = domain.RoleConflictError
