package workflow

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewInstanceRepository(db *bun.DB) repository.Repository[*Instance] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Instance]{
		NewRecord: func() *Instance { return &Instance{} },
		GetID: func(i *Instance) uuid.UUID {
			return i.ID
		},
		SetID: func(i *Instance, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(i *Instance) string {
			if i == nil {
				return ""
			}
			return i.ID.String()
		},
	})
}

func NewTransitionRepository(db *bun.DB) repository.Repository[*Transition] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Transition]{
		NewRecord: func() *Transition { return &Transition{} },
		GetID: func(t *Transition) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Transition, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(t *Transition) string {
			if t == nil {
				return ""
			}
			return t.ID.String()
		},
	})
}
