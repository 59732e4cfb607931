package workflowcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

const applyTransitionMessageType = "docflow.workflow.transition"

// ApplyTransitionCommand applies one lifecycle edge to a document on behalf
// of a user.
type ApplyTransitionCommand struct {
	DocumentID    uuid.UUID    `json:"document_id"`
	Edge          string       `json:"edge"`
	ActorID       uuid.UUID    `json:"actor_id"`
	FromState     domain.State `json:"from_state,omitempty"`
	Comment       string       `json:"comment,omitempty"`
	EffectiveDate *time.Time   `json:"effective_date,omitempty"`
}

// Type implements command.Message.
func (ApplyTransitionCommand) Type() string { return applyTransitionMessageType }

// Validate ensures the message carries the required fields before reaching
// handlers. Lifecycle guards (roles, state, dates) stay with the workflow
// service so they are audited.
func (m ApplyTransitionCommand) Validate() error {
	errs := validation.Errors{}
	if m.DocumentID == uuid.Nil {
		errs["document_id"] = validation.NewError("docflow.workflow.transition.document_id_required", "document_id is required")
	}
	if m.ActorID == uuid.Nil {
		errs["actor_id"] = validation.NewError("docflow.workflow.transition.actor_id_required", "actor_id is required")
	}
	if m.Edge == "" {
		errs["edge"] = validation.NewError("docflow.workflow.transition.edge_required", "edge is required")
	}
	if m.FromState != "" && !domain.Known(m.FromState) {
		errs["from_state"] = validation.NewError("docflow.workflow.transition.from_state_unknown", "from_state is not a lifecycle state")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyTransitionHandler applies transitions via the workflow service.
type ApplyTransitionHandler struct {
	inner *commands.Handler[ApplyTransitionCommand]
}

// NewApplyTransitionHandler constructs a handler wired to the provided
// workflow service.
func NewApplyTransitionHandler(service workflow.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ApplyTransitionCommand]) *ApplyTransitionHandler {
	exec := func(ctx context.Context, msg ApplyTransitionCommand) error {
		_, err := service.Apply(ctx, workflow.TransitionRequest{
			DocumentID:    msg.DocumentID,
			Edge:          msg.Edge,
			Actor:         domain.UserActor(msg.ActorID),
			FromState:     msg.FromState,
			Comment:       msg.Comment,
			EffectiveDate: msg.EffectiveDate,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[ApplyTransitionCommand]{
		commands.WithLogger[ApplyTransitionCommand](logger),
		commands.WithOperation[ApplyTransitionCommand]("workflow.transition"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ApplyTransitionHandler{
		inner: commands.NewHandler[ApplyTransitionCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ApplyTransitionCommand].Execute.
func (h *ApplyTransitionHandler) Execute(ctx context.Context, msg ApplyTransitionCommand) error {
	return h.inner.Execute(ctx, msg)
}
