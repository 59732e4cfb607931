package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// Role identifies the capacity a user holds on a specific document. Role
// assignment is per-document, not global; the workflow core consumes it as a
// fact supplied by the host's user/permission service.
type Role string

const (
	RoleAuthor   Role = "author"
	RoleReviewer Role = "reviewer"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
	RoleNone     Role = "none"

	// RoleSystem is reserved for scheduler-driven transitions. It is never
	// returned by a RoleResolver; the sweeper asserts it directly.
	RoleSystem Role = "system-scheduler"
)

// RoleResolver resolves the role a user holds for one document. Implemented by
// the host application's permission service.
type RoleResolver interface {
	GetRole(ctx context.Context, documentID, userID uuid.UUID) (Role, error)
}

// RoleResolverFunc adapts a function to the RoleResolver interface.
type RoleResolverFunc func(ctx context.Context, documentID, userID uuid.UUID) (Role, error)

// GetRole satisfies RoleResolver.
func (f RoleResolverFunc) GetRole(ctx context.Context, documentID, userID uuid.UUID) (Role, error) {
	return f(ctx, documentID, userID)
}

// DependencyChecker reports whether other live documents depend on the given
// document. Consulted before a document can be made obsolete.
type DependencyChecker interface {
	HasDependents(ctx context.Context, documentID uuid.UUID) (bool, error)
}

// DependencyCheckerFunc adapts a function to the DependencyChecker interface.
type DependencyCheckerFunc func(ctx context.Context, documentID uuid.UUID) (bool, error)

// HasDependents satisfies DependencyChecker.
func (f DependencyCheckerFunc) HasDependents(ctx context.Context, documentID uuid.UUID) (bool, error) {
	return f(ctx, documentID)
}
