package authorization

import (
	"context"
	"errors"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrResolverRequired signals the gate was built without a role resolver.
var ErrResolverRequired = errors.New("authorization: role resolver required")

// Request carries everything the gate needs to decide whether an actor may
// apply an edge to a workflow instance. The workflow service builds it from
// the instance it holds under lock.
type Request struct {
	DocumentID   uuid.UUID
	CurrentState domain.State
	// SeenState is the state the caller observed before submitting. Zero
	// means the caller did not assert a state.
	SeenState  domain.State
	AuthorID   uuid.UUID
	ReviewerID *uuid.UUID
	ApproverID *uuid.UUID
	Edge       domain.Edge
	Actor      domain.Actor
}

// Gate evaluates edge authorization: role membership first, then separation
// of duties, then state freshness. The ordering is observable through which
// error a caller receives when several rules fail at once.
type Gate struct {
	roles  interfaces.RoleResolver
	logger interfaces.Logger
}

// Option configures the gate.
type Option func(*Gate)

// WithLogger overrides the gate's logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New constructs a gate backed by the given role resolver.
func New(roles interfaces.RoleResolver, opts ...Option) (*Gate, error) {
	if roles == nil {
		return nil, ErrResolverRequired
	}
	gate := &Gate{
		roles:  roles,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(gate)
	}
	return gate, nil
}

// Authorize returns nil when the actor may apply the edge, or one of the
// domain authorization errors otherwise. The role resolved for the actor is
// returned either way so the caller can stamp it into the audit trail.
func (g *Gate) Authorize(ctx context.Context, req Request) (interfaces.Role, error) {
	role, err := g.resolveRole(ctx, req)
	if err != nil {
		return interfaces.RoleNone, err
	}

	if err := g.checkRole(req, role); err != nil {
		return role, err
	}
	if err := g.checkSeparation(req, role); err != nil {
		return role, err
	}
	if err := g.checkState(req); err != nil {
		return role, err
	}
	return role, nil
}

// ResolveRole returns the actor's role for a document without evaluating
// any edge. Used to stamp audit rows for attempts that never reach an edge.
func (g *Gate) ResolveRole(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (interfaces.Role, error) {
	if actor.System {
		return interfaces.RoleSystem, nil
	}
	return g.roles.GetRole(ctx, documentID, actor.ID)
}

func (g *Gate) resolveRole(ctx context.Context, req Request) (interfaces.Role, error) {
	if req.Actor.System {
		return interfaces.RoleSystem, nil
	}
	role, err := g.roles.GetRole(ctx, req.DocumentID, req.Actor.ID)
	if err != nil {
		return interfaces.RoleNone, err
	}
	return role, nil
}

func (g *Gate) checkRole(req Request, role interfaces.Role) error {
	if req.Actor.System {
		if req.Edge.SystemAllowed {
			return nil
		}
		g.logger.Warn("system actor denied for edge", "edge", req.Edge.Name, "document_id", req.DocumentID)
		return &domain.DeniedError{Edge: req.Edge.Name, Role: interfaces.RoleSystem}
	}
	if req.Edge.AllowsRole(role) {
		return nil
	}
	g.logger.Info("actor denied for edge",
		"edge", req.Edge.Name,
		"document_id", req.DocumentID,
		"actor_id", req.Actor.ID,
		"role", string(role),
	)
	return &domain.DeniedError{Edge: req.Edge.Name, Role: role, Actor: req.Actor.ID}
}

// checkSeparation enforces that authors never review or approve their own
// documents and that the reviewer and approver of one instance are distinct
// people.
func (g *Gate) checkSeparation(req Request, role interfaces.Role) error {
	if req.Actor.System || !req.Edge.RequiresSeparation {
		return nil
	}
	actor := req.Actor.ID
	if actor == req.AuthorID {
		return &domain.RoleConflictError{
			Edge:   req.Edge.Name,
			Actor:  actor,
			Reason: "author may not act as " + string(role) + " on their own document",
		}
	}
	switch role {
	case interfaces.RoleReviewer:
		if req.ApproverID != nil && *req.ApproverID == actor {
			return &domain.RoleConflictError{
				Edge:   req.Edge.Name,
				Actor:  actor,
				Reason: "approver may not also review this document",
			}
		}
	case interfaces.RoleApprover:
		if req.ReviewerID != nil && *req.ReviewerID == actor {
			return &domain.RoleConflictError{
				Edge:   req.Edge.Name,
				Actor:  actor,
				Reason: "reviewer may not also approve this document",
			}
		}
	}
	return nil
}

func (g *Gate) checkState(req Request) error {
	if req.SeenState != "" && req.SeenState != req.CurrentState {
		return &domain.StateChangedError{
			DocumentID: req.DocumentID,
			Expected:   req.SeenState,
			Actual:     req.CurrentState,
		}
	}
	if req.Edge.From != req.CurrentState {
		return &domain.StateChangedError{
			DocumentID: req.DocumentID,
			Expected:   req.Edge.From,
			Actual:     req.CurrentState,
		}
	}
	return nil
}
