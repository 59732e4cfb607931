package domain

import "github.com/google/uuid"

// Actor identifies who is requesting a transition. System is set for the
// effectiveness scheduler, which is never subject to role resolution.
type Actor struct {
	ID     uuid.UUID
	System bool
}

// UserActor builds an actor for a human user.
func UserActor(id uuid.UUID) Actor {
	return Actor{ID: id}
}

// SystemActor builds the scheduler pseudo-actor.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, System: true}
}
