package authorization_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

func staticRoles(roles map[uuid.UUID]interfaces.Role) interfaces.RoleResolver {
	return interfaces.RoleResolverFunc(func(_ context.Context, _ uuid.UUID, userID uuid.UUID) (interfaces.Role, error) {
		if role, ok := roles[userID]; ok {
			return role, nil
		}
		return interfaces.RoleNone, nil
	})
}

func mustEdge(t *testing.T, name string, from domain.State) domain.Edge {
	t.Helper()
	edge, ok := domain.LookupEdge(name, from)
	if !ok {
		t.Fatalf("lookup edge %s from %s failed", name, from)
	}
	return edge
}

func TestGateRequiresResolver(t *testing.T) {
	if _, err := authorization.New(nil); !errors.Is(err, authorization.ErrResolverRequired) {
		t.Fatalf("expected ErrResolverRequired, got %v", err)
	}
}

func TestGateAllowsReviewer(t *testing.T) {
	author := uuid.New()
	reviewer := uuid.New()
	gate, err := authorization.New(staticRoles(map[uuid.UUID]interfaces.Role{
		author:   interfaces.RoleAuthor,
		reviewer: interfaces.RoleReviewer,
	}))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}

	role, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StatePendingReview,
		AuthorID:     author,
		Edge:         mustEdge(t, domain.EdgeBeginReview, domain.StatePendingReview),
		Actor:        domain.UserActor(reviewer),
	})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if role != interfaces.RoleReviewer {
		t.Fatalf("expected reviewer role, got %q", role)
	}
}

func TestGateDeniesWrongRole(t *testing.T) {
	author := uuid.New()
	gate, _ := authorization.New(staticRoles(map[uuid.UUID]interfaces.Role{
		author: interfaces.RoleAuthor,
	}))

	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StateReviewed,
		AuthorID:     uuid.New(),
		Edge:         mustEdge(t, domain.EdgeBeginApproval, domain.StatePendingApproval),
		Actor:        domain.UserActor(author),
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var denied *domain.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %T", err)
	}
	if denied.Role != interfaces.RoleAuthor {
		t.Fatalf("expected author role in error, got %q", denied.Role)
	}
}

func TestGateRejectsAuthorReviewingOwnDocument(t *testing.T) {
	author := uuid.New()
	gate, _ := authorization.New(staticRoles(map[uuid.UUID]interfaces.Role{
		author: interfaces.RoleReviewer,
	}))

	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StatePendingReview,
		AuthorID:     author,
		Edge:         mustEdge(t, domain.EdgeBeginReview, domain.StatePendingReview),
		Actor:        domain.UserActor(author),
	})
	if !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}
}

func TestGateRejectsReviewerActingAsApprover(t *testing.T) {
	reviewer := uuid.New()
	gate, _ := authorization.New(staticRoles(map[uuid.UUID]interfaces.Role{
		reviewer: interfaces.RoleApprover,
	}))

	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StatePendingApproval,
		AuthorID:     uuid.New(),
		ReviewerID:   &reviewer,
		Edge:         mustEdge(t, domain.EdgeBeginApproval, domain.StatePendingApproval),
		Actor:        domain.UserActor(reviewer),
	})
	if !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}
}

func TestGateRoleCheckRunsBeforeStateCheck(t *testing.T) {
	nobody := uuid.New()
	gate, _ := authorization.New(staticRoles(nil))

	// State is stale AND the actor has no role. The role failure wins.
	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StateDraft,
		SeenState:    domain.StateUnderReview,
		AuthorID:     uuid.New(),
		Edge:         mustEdge(t, domain.EdgeCompleteReview, domain.StateUnderReview),
		Actor:        domain.UserActor(nobody),
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGateDetectsStaleState(t *testing.T) {
	reviewer := uuid.New()
	gate, _ := authorization.New(staticRoles(map[uuid.UUID]interfaces.Role{
		reviewer: interfaces.RoleReviewer,
	}))

	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StateReviewed,
		SeenState:    domain.StateUnderReview,
		AuthorID:     uuid.New(),
		Edge:         mustEdge(t, domain.EdgeCompleteReview, domain.StateUnderReview),
		Actor:        domain.UserActor(reviewer),
	})
	if !errors.Is(err, domain.ErrStateChanged) {
		t.Fatalf("expected ErrStateChanged, got %v", err)
	}
	var stale *domain.StateChangedError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StateChangedError, got %T", err)
	}
	if stale.Actual != domain.StateReviewed {
		t.Fatalf("expected actual state reviewed, got %q", stale.Actual)
	}
}

func TestGateAllowsSystemForMakeEffective(t *testing.T) {
	gate, _ := authorization.New(staticRoles(nil))

	role, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StateApprovedPendingEffective,
		AuthorID:     uuid.New(),
		Edge:         mustEdge(t, domain.EdgeMakeEffective, domain.StateApprovedPendingEffective),
		Actor:        domain.SystemActor(),
	})
	if err != nil {
		t.Fatalf("authorize system: %v", err)
	}
	if role != interfaces.RoleSystem {
		t.Fatalf("expected system role, got %q", role)
	}
}

func TestGateDeniesSystemForReviewEdges(t *testing.T) {
	gate, _ := authorization.New(staticRoles(nil))

	_, err := gate.Authorize(context.Background(), authorization.Request{
		DocumentID:   uuid.New(),
		CurrentState: domain.StatePendingReview,
		AuthorID:     uuid.New(),
		Edge:         mustEdge(t, domain.EdgeBeginReview, domain.StatePendingReview),
		Actor:        domain.SystemActor(),
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for system actor, got %v", err)
	}
}
