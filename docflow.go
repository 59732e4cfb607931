package docflow

import (
	"github.com/goliatone/go-docflow/internal/audit"
	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/di"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/scheduler"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
)

// WorkflowService exports the lifecycle service contract for consumers of
// the docflow package.
type WorkflowService = workflow.Service

// AuditService exports the transition trail contract.
type AuditService = audit.Service

// Instance exports the workflow instance record.
type Instance = workflow.Instance

// Transition exports the append-only audit row.
type Transition = workflow.Transition

// StartRequest exports the workflow start input.
type StartRequest = workflow.StartRequest

// TransitionRequest exports the transition input.
type TransitionRequest = workflow.TransitionRequest

// SweepResult exports the effectiveness sweep summary.
type SweepResult = workflow.SweepResult

// Sweeper exports the effectiveness sweeper.
type Sweeper = scheduler.Sweeper

// Runner exports the cron-driven sweep runner.
type Runner = scheduler.Runner

// Gate exports the authorization gate.
type Gate = authorization.Gate

// State exports the lifecycle state type.
type State = domain.State

// Edge exports the lifecycle edge descriptor.
type Edge = domain.Edge

// Actor exports the transition actor identity.
type Actor = domain.Actor

// Kind exports the workflow kind discriminator.
type Kind = workflow.Kind

// Outcome exports the audit outcome discriminator.
type Outcome = workflow.Outcome

// Role exports the per-document role type.
type Role = interfaces.Role

// RoleResolver exports the host-side role lookup contract.
type RoleResolver = interfaces.RoleResolver

// RoleResolverFunc exports the function adapter for RoleResolver.
type RoleResolverFunc = interfaces.RoleResolverFunc

// DependencyChecker exports the obsolescence dependency contract.
type DependencyChecker = interfaces.DependencyChecker

// DependencyCheckerFunc exports the function adapter for DependencyChecker.
type DependencyCheckerFunc = interfaces.DependencyCheckerFunc

// Lifecycle states.
const (
	StateDraft                    = domain.StateDraft
	StatePendingReview            = domain.StatePendingReview
	StateUnderReview              = domain.StateUnderReview
	StateReviewed                 = domain.StateReviewed
	StatePendingApproval          = domain.StatePendingApproval
	StateUnderApproval            = domain.StateUnderApproval
	StateApprovedPendingEffective = domain.StateApprovedPendingEffective
	StateApprovedAndEffective     = domain.StateApprovedAndEffective
	StateEffective                = domain.StateEffective
	StateSuperseded               = domain.StateSuperseded
	StateObsolete                 = domain.StateObsolete
	StateTerminated               = domain.StateTerminated
)

// Edge names.
const (
	EdgeSubmitForReview   = domain.EdgeSubmitForReview
	EdgeBeginReview       = domain.EdgeBeginReview
	EdgeCompleteReview    = domain.EdgeCompleteReview
	EdgeSubmitForApproval = domain.EdgeSubmitForApproval
	EdgeBeginApproval     = domain.EdgeBeginApproval
	EdgeApprove           = domain.EdgeApprove
	EdgeMakeEffective     = domain.EdgeMakeEffective
	EdgeSupersede         = domain.EdgeSupersede
	EdgeMakeObsolete      = domain.EdgeMakeObsolete
	EdgeTerminate         = domain.EdgeTerminate
)

// Roles.
const (
	RoleAuthor   = interfaces.RoleAuthor
	RoleReviewer = interfaces.RoleReviewer
	RoleApprover = interfaces.RoleApprover
	RoleAdmin    = interfaces.RoleAdmin
	RoleNone     = interfaces.RoleNone
	RoleSystem   = interfaces.RoleSystem
)

// Workflow kinds.
const (
	KindReview       = workflow.KindReview
	KindUpVersion    = workflow.KindUpVersion
	KindObsolescence = workflow.KindObsolescence
)

// Transition outcomes.
const (
	OutcomeApplied  = workflow.OutcomeApplied
	OutcomeRejected = workflow.OutcomeRejected
)

// UserActor builds an actor for a human user.
var UserActor = domain.UserActor

// SystemActor builds the scheduler pseudo-actor.
var SystemActor = domain.SystemActor

// Module is the top level docflow runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a docflow module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Workflows returns the configured lifecycle service.
func (m *Module) Workflows() WorkflowService {
	return m.container.WorkflowService()
}

// Audit returns the transition trail service.
func (m *Module) Audit() AuditService {
	return m.container.AuditService()
}

// Sweeper returns the effectiveness sweeper for on-demand runs.
func (m *Module) Sweeper() *Sweeper {
	return m.container.Sweeper()
}

// Runner returns the cron runner, nil when the scheduler feature is off.
func (m *Module) Runner() *Runner {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Runner()
}
