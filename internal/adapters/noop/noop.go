package noop

import (
	"context"

	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// Roles returns a RoleResolver that grants no role to anyone. Useful for
// hosts that drive every transition through the scheduler, and for tests.
func Roles() interfaces.RoleResolver {
	return roleAdapter{}
}

type roleAdapter struct{}

func (roleAdapter) GetRole(context.Context, uuid.UUID, uuid.UUID) (interfaces.Role, error) {
	return interfaces.RoleNone, nil
}

// Dependencies returns a DependencyChecker that reports no dependents, so
// obsolescence is never blocked.
func Dependencies() interfaces.DependencyChecker {
	return dependencyAdapter{}
}

type dependencyAdapter struct{}

func (dependencyAdapter) HasDependents(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
