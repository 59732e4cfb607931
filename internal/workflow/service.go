package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// EdgeStartWorkflow is the audit edge name for workflow creation. It is not
// part of the lifecycle graph.
const EdgeStartWorkflow = "start_workflow"

// StartRequest opens a workflow instance for a document.
type StartRequest struct {
	DocumentID   uuid.UUID
	InitiatedBy  uuid.UUID
	Kind         Kind
	SupersedesID *uuid.UUID
}

// TransitionRequest applies one lifecycle edge to a document.
type TransitionRequest struct {
	DocumentID uuid.UUID
	Edge       string
	Actor      domain.Actor
	// FromState is the state the caller last observed. When set, a mismatch
	// with the live state rejects the request with ErrStateChanged.
	FromState     domain.State
	Comment       string
	EffectiveDate *time.Time
}

// Service drives documents through the controlled lifecycle. All transition
// attempts, applied or rejected, leave exactly one audit row.
type Service interface {
	Start(ctx context.Context, req StartRequest) (*Instance, error)
	Apply(ctx context.Context, req TransitionRequest) (*Instance, error)
	// Status returns the document's active instance, or nil when the
	// document has no live workflow.
	Status(ctx context.Context, documentID uuid.UUID) (*Instance, error)
	History(ctx context.Context, documentID uuid.UUID) ([]*Transition, error)
	// AvailableActions returns the edges the actor could apply to the
	// document in its current state.
	AvailableActions(ctx context.Context, documentID uuid.UUID, actor domain.Actor) ([]domain.Edge, error)
}

type service struct {
	repo   Repository
	gate   *authorization.Gate
	deps   interfaces.DependencyChecker
	locks  *documentLocks
	logger interfaces.Logger
	now    func() time.Time
	newID  func() uuid.UUID
	grace  time.Duration
}

// Option configures the workflow service.
type Option func(*service)

// WithClock overrides the service clock, primarily for testing.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides instance ID generation.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDependencyChecker wires the reference checker consulted before
// obsolescence. Without one, documents are assumed to have no dependents.
func WithDependencyChecker(checker interfaces.DependencyChecker) Option {
	return func(s *service) {
		s.deps = checker
	}
}

// WithEffectiveDateGrace widens the backdating tolerance for approval
// effective dates.
func WithEffectiveDateGrace(grace time.Duration) Option {
	return func(s *service) {
		if grace >= 0 {
			s.grace = grace
		}
	}
}

// New constructs the workflow service.
func New(repo Repository, gate *authorization.Gate, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, errors.New("workflow: repository required")
	}
	if gate == nil {
		return nil, errors.New("workflow: authorization gate required")
	}
	svc := &service{
		repo:   repo,
		gate:   gate,
		locks:  newDocumentLocks(),
		logger: logging.NoOp(),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) Start(ctx context.Context, req StartRequest) (*Instance, error) {
	if req.DocumentID == uuid.Nil {
		return nil, ErrNilDocumentID
	}
	if req.InitiatedBy == uuid.Nil {
		return nil, ErrNilActorID
	}
	kind := req.Kind
	if kind == "" {
		kind = KindReview
	}
	if !KnownKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if kind == KindUpVersion && req.SupersedesID == nil {
		return nil, ErrSupersedeTargetRequired
	}

	release := s.locks.acquire(req.DocumentID)
	defer release()

	actor := domain.UserActor(req.InitiatedBy)
	role, err := s.gate.ResolveRole(ctx, req.DocumentID, actor)
	if err != nil {
		return nil, fmt.Errorf("workflow: resolve initiator role: %w", err)
	}

	attempt := func(cause error) (*Instance, error) {
		s.recordRejection(ctx, &Transition{
			DocumentID: req.DocumentID,
			Edge:       EdgeStartWorkflow,
			ToState:    domain.InitialState(),
			ActorID:    req.InitiatedBy,
			ActorRole:  role,
		}, cause)
		return nil, cause
	}

	if existing, err := s.repo.GetActiveByDocument(ctx, req.DocumentID); err == nil && existing != nil {
		return attempt(fmt.Errorf("%w: instance %s in state %q", domain.ErrWorkflowExists, existing.ID, existing.CurrentState))
	} else if err != nil && !IsNotFound(err) {
		return nil, err
	}

	if role != interfaces.RoleAuthor {
		return attempt(&domain.DeniedError{Edge: EdgeStartWorkflow, Role: role, Actor: req.InitiatedBy})
	}

	if req.SupersedesID != nil {
		target, err := s.repo.GetActiveByDocument(ctx, *req.SupersedesID)
		if err != nil || !target.CurrentState.IsEffective() {
			return attempt(fmt.Errorf("%w: document %s is not effective", ErrSupersedeTargetRequired, *req.SupersedesID))
		}
	}

	now := s.now().UTC()
	instance := &Instance{
		ID:           s.newID(),
		DocumentID:   req.DocumentID,
		Kind:         kind,
		CurrentState: domain.InitialState(),
		InitiatedBy:  req.InitiatedBy,
		InitiatedAt:  now,
		SupersedesID: req.SupersedesID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	record := &Transition{
		WorkflowInstanceID: instance.ID,
		DocumentID:         req.DocumentID,
		Edge:               EdgeStartWorkflow,
		ToState:            instance.CurrentState,
		ActorID:            req.InitiatedBy,
		ActorRole:          role,
		Outcome:            OutcomeApplied,
		RecordedAt:         now,
	}

	created, err := s.repo.CreateInstance(ctx, instance, record)
	if err != nil {
		return nil, fmt.Errorf("workflow: create instance: %w", err)
	}
	s.logger.Info("workflow started",
		"document_id", req.DocumentID,
		"instance_id", created.ID,
		"kind", string(kind),
	)
	return created, nil
}

func (s *service) Apply(ctx context.Context, req TransitionRequest) (*Instance, error) {
	if req.DocumentID == uuid.Nil {
		return nil, ErrNilDocumentID
	}
	if !req.Actor.System && req.Actor.ID == uuid.Nil {
		return nil, ErrNilActorID
	}
	if req.Edge == "" {
		return nil, fmt.Errorf("%w: edge name required", domain.ErrInvalidTransition)
	}

	// Peek at the instance to learn whether this transition may touch a
	// second document, then take every needed lock in one sorted acquire.
	lockIDs := []uuid.UUID{req.DocumentID}
	if peek, err := s.repo.GetActiveByDocument(ctx, req.DocumentID); err == nil && peek.SupersedesID != nil {
		lockIDs = append(lockIDs, *peek.SupersedesID)
	}
	release := s.locks.acquire(lockIDs...)
	defer release()

	instance, err := s.repo.GetActiveByDocument(ctx, req.DocumentID)
	if IsNotFound(err) {
		cause := fmt.Errorf("%w: document %s", domain.ErrNoActiveWorkflow, req.DocumentID)
		role, _ := s.gate.ResolveRole(ctx, req.DocumentID, req.Actor)
		s.recordRejection(ctx, &Transition{
			DocumentID: req.DocumentID,
			Edge:       req.Edge,
			FromState:  req.FromState,
			ActorID:    req.Actor.ID,
			ActorRole:  role,
			Comment:    req.Comment,
		}, cause)
		return nil, cause
	}
	if err != nil {
		return nil, err
	}

	return s.applyLocked(ctx, instance, req)
}

func (s *service) applyLocked(ctx context.Context, instance *Instance, req TransitionRequest) (*Instance, error) {
	reject := func(role interfaces.Role, cause error) (*Instance, error) {
		s.recordRejection(ctx, &Transition{
			WorkflowInstanceID: instance.ID,
			DocumentID:         instance.DocumentID,
			Edge:               req.Edge,
			FromState:          instance.CurrentState,
			ActorID:            req.Actor.ID,
			ActorRole:          role,
			Comment:            req.Comment,
		}, cause)
		return nil, cause
	}

	edge, err := s.resolveEdge(req.Edge, instance.CurrentState)
	if err != nil {
		role, _ := s.gate.ResolveRole(ctx, instance.DocumentID, req.Actor)
		return reject(role, err)
	}

	role, err := s.gate.Authorize(ctx, authorization.Request{
		DocumentID:   instance.DocumentID,
		CurrentState: instance.CurrentState,
		SeenState:    req.FromState,
		AuthorID:     instance.InitiatedBy,
		ReviewerID:   instance.ReviewerID,
		ApproverID:   instance.ApproverID,
		Edge:         edge,
		Actor:        req.Actor,
	})
	if err != nil {
		return reject(role, err)
	}

	target, scheduled, err := s.resolveTarget(ctx, instance, edge, req)
	if err != nil {
		return reject(role, err)
	}

	now := s.now().UTC()
	updated := instance.Clone()
	updated.CurrentState = target
	updated.UpdatedAt = now
	if scheduled != nil {
		updated.ScheduledEffectiveDate = scheduled
	}
	s.stampCollaborator(updated, edge, req.Actor, role)

	record := &Transition{
		WorkflowInstanceID: instance.ID,
		DocumentID:         instance.DocumentID,
		Edge:               edge.Name,
		FromState:          instance.CurrentState,
		ToState:            target,
		ActorID:            req.Actor.ID,
		ActorRole:          role,
		Outcome:            OutcomeApplied,
		Comment:            req.Comment,
		RecordedAt:         now,
	}
	update := TransitionUpdate{Instance: updated, Expected: instance.CurrentState, Record: record}

	if target.IsEffective() && updated.SupersedesID != nil {
		if err := s.applyWithSupersede(ctx, update, req.Actor, role, now); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.repo.ApplyTransition(ctx, update); err != nil {
			return nil, err
		}
	}

	s.logger.Info("transition applied",
		"document_id", instance.DocumentID,
		"instance_id", instance.ID,
		"edge", edge.Name,
		"from", string(instance.CurrentState),
		"to", string(target),
		"actor_role", string(role),
	)
	return updated, nil
}

func (s *service) Status(ctx context.Context, documentID uuid.UUID) (*Instance, error) {
	if documentID == uuid.Nil {
		return nil, ErrNilDocumentID
	}
	instance, err := s.repo.GetActiveByDocument(ctx, documentID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *service) History(ctx context.Context, documentID uuid.UUID) ([]*Transition, error) {
	if documentID == uuid.Nil {
		return nil, ErrNilDocumentID
	}
	return s.repo.HistoryByDocument(ctx, documentID)
}

func (s *service) AvailableActions(ctx context.Context, documentID uuid.UUID, actor domain.Actor) ([]domain.Edge, error) {
	if documentID == uuid.Nil {
		return nil, ErrNilDocumentID
	}
	instance, err := s.repo.GetActiveByDocument(ctx, documentID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	candidates := domain.EdgesFrom(instance.CurrentState)
	allowed := make([]domain.Edge, 0, len(candidates))
	for _, edge := range candidates {
		if _, err := s.gate.Authorize(ctx, authorization.Request{
			DocumentID:   instance.DocumentID,
			CurrentState: instance.CurrentState,
			AuthorID:     instance.InitiatedBy,
			ReviewerID:   instance.ReviewerID,
			ApproverID:   instance.ApproverID,
			Edge:         edge,
			Actor:        actor,
		}); err == nil {
			allowed = append(allowed, edge)
		}
	}
	return allowed, nil
}

// resolveEdge distinguishes an edge that does not exist anywhere in the
// lifecycle graph from one that exists but not at the instance's current
// state. The latter is authorized anyway so a role failure surfaces before
// the stale-state failure.
func (s *service) resolveEdge(name string, current domain.State) (domain.Edge, error) {
	if edge, ok := domain.LookupEdge(name, current); ok {
		return edge, nil
	}
	if !domain.EdgeExists(name) {
		return domain.Edge{}, fmt.Errorf("%w: %q", domain.ErrInvalidTransition, name)
	}
	for _, edge := range domain.Edges() {
		if edge.Name == name {
			return edge, nil
		}
	}
	return domain.Edge{}, fmt.Errorf("%w: %q", domain.ErrInvalidTransition, name)
}

// resolveTarget evaluates the edge's guards and picks the target state,
// branching approvals on the effective date.
func (s *service) resolveTarget(ctx context.Context, instance *Instance, edge domain.Edge, req TransitionRequest) (domain.State, *time.Time, error) {
	if edge.RequiresComment && req.Comment == "" {
		return "", nil, fmt.Errorf("%w: edge %q", domain.ErrCommentRequired, edge.Name)
	}
	if edge.RequiresNoDependents && s.deps != nil {
		hasDependents, err := s.deps.HasDependents(ctx, instance.DocumentID)
		if err != nil {
			return "", nil, fmt.Errorf("workflow: check dependents: %w", err)
		}
		if hasDependents {
			return "", nil, fmt.Errorf("%w: document %s", domain.ErrDependentsExist, instance.DocumentID)
		}
	}
	if !edge.RequiresEffectiveDate {
		return edge.To, nil, nil
	}

	if req.EffectiveDate == nil {
		return "", nil, fmt.Errorf("%w: edge %q", domain.ErrMissingEffectiveDate, edge.Name)
	}
	date := req.EffectiveDate.UTC()
	now := s.now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(startOfToday.Add(-s.grace)) {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrInvalidEffectiveDate, date.Format(time.DateOnly))
	}
	// A date on today's calendar day means the approval is effective
	// immediately; a future day waits for the scheduler.
	if date.Before(startOfToday.Add(24 * time.Hour)) {
		return edge.ImmediateTo, &date, nil
	}
	return edge.To, &date, nil
}

// stampCollaborator pins the reviewer and approver identities the first
// time each picks up the document.
func (s *service) stampCollaborator(instance *Instance, edge domain.Edge, actor domain.Actor, role interfaces.Role) {
	if actor.System {
		return
	}
	switch edge.Name {
	case domain.EdgeBeginReview:
		if instance.ReviewerID == nil {
			id := actor.ID
			instance.ReviewerID = &id
		}
	case domain.EdgeBeginApproval, domain.EdgeApprove:
		if instance.ApproverID == nil && role == interfaces.RoleApprover {
			id := actor.ID
			instance.ApproverID = &id
		}
	}
}

// applyWithSupersede commits the promotion together with the supersession
// of the replaced document. When the replaced document is no longer in a
// supersedable state the promotion proceeds alone.
func (s *service) applyWithSupersede(ctx context.Context, promote TransitionUpdate, actor domain.Actor, role interfaces.Role, now time.Time) error {
	target, err := s.repo.GetActiveByDocument(ctx, *promote.Instance.SupersedesID)
	if err != nil {
		s.logger.Warn("supersede target has no active workflow, promoting alone",
			"document_id", promote.Instance.DocumentID,
			"supersedes", *promote.Instance.SupersedesID,
		)
		_, err := s.repo.ApplyTransition(ctx, promote)
		return err
	}
	supersedeEdge, ok := domain.LookupEdge(domain.EdgeSupersede, target.CurrentState)
	if !ok {
		s.logger.Warn("supersede target not in a supersedable state, promoting alone",
			"document_id", promote.Instance.DocumentID,
			"supersedes", target.DocumentID,
			"target_state", string(target.CurrentState),
		)
		_, err := s.repo.ApplyTransition(ctx, promote)
		return err
	}

	superseded := target.Clone()
	superseded.CurrentState = supersedeEdge.To
	superseded.UpdatedAt = now
	record := &Transition{
		WorkflowInstanceID: target.ID,
		DocumentID:         target.DocumentID,
		Edge:               supersedeEdge.Name,
		FromState:          target.CurrentState,
		ToState:            supersedeEdge.To,
		ActorID:            actor.ID,
		ActorRole:          role,
		Outcome:            OutcomeApplied,
		Comment:            fmt.Sprintf("superseded by document %s", promote.Instance.DocumentID),
		RecordedAt:         now,
	}
	return s.repo.ApplyPair(ctx, promote, TransitionUpdate{
		Instance: superseded,
		Expected: target.CurrentState,
		Record:   record,
	})
}

// recordRejection writes the audit row for a failed attempt. A failure to
// record is logged but does not mask the original rejection.
func (s *service) recordRejection(ctx context.Context, record *Transition, cause error) {
	record.Outcome = OutcomeRejected
	record.RejectionReason = cause.Error()
	record.RecordedAt = s.now().UTC()
	if _, err := s.repo.AppendTransition(ctx, record); err != nil {
		s.logger.Error("failed to record rejected transition",
			"document_id", record.DocumentID,
			"edge", record.Edge,
			"error", err,
		)
	}
}
