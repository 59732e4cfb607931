package workflowcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

const startWorkflowMessageType = "docflow.workflow.start"

// StartWorkflowCommand opens a lifecycle instance for a document.
type StartWorkflowCommand struct {
	DocumentID   uuid.UUID     `json:"document_id"`
	InitiatedBy  uuid.UUID     `json:"initiated_by"`
	Kind         workflow.Kind `json:"kind,omitempty"`
	SupersedesID *uuid.UUID    `json:"supersedes_document_id,omitempty"`
}

// Type implements command.Message.
func (StartWorkflowCommand) Type() string { return startWorkflowMessageType }

// Validate ensures the message carries the required fields before reaching
// handlers.
func (m StartWorkflowCommand) Validate() error {
	errs := validation.Errors{}
	if m.DocumentID == uuid.Nil {
		errs["document_id"] = validation.NewError("docflow.workflow.start.document_id_required", "document_id is required")
	}
	if m.InitiatedBy == uuid.Nil {
		errs["initiated_by"] = validation.NewError("docflow.workflow.start.initiated_by_required", "initiated_by is required")
	}
	if m.Kind != "" && !workflow.KnownKind(m.Kind) {
		errs["kind"] = validation.NewError("docflow.workflow.start.kind_unknown", "kind must be review, up_version, or obsolescence")
	}
	if m.Kind == workflow.KindUpVersion && m.SupersedesID == nil {
		errs["supersedes_document_id"] = validation.NewError("docflow.workflow.start.supersedes_required", "up_version requires supersedes_document_id")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StartWorkflowHandler opens workflows via the workflow service.
type StartWorkflowHandler struct {
	inner *commands.Handler[StartWorkflowCommand]
}

// NewStartWorkflowHandler constructs a handler wired to the provided
// workflow service.
func NewStartWorkflowHandler(service workflow.Service, logger interfaces.Logger, opts ...commands.HandlerOption[StartWorkflowCommand]) *StartWorkflowHandler {
	exec := func(ctx context.Context, msg StartWorkflowCommand) error {
		_, err := service.Start(ctx, workflow.StartRequest{
			DocumentID:   msg.DocumentID,
			InitiatedBy:  msg.InitiatedBy,
			Kind:         msg.Kind,
			SupersedesID: msg.SupersedesID,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[StartWorkflowCommand]{
		commands.WithLogger[StartWorkflowCommand](logger),
		commands.WithOperation[StartWorkflowCommand]("workflow.start"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &StartWorkflowHandler{
		inner: commands.NewHandler[StartWorkflowCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[StartWorkflowCommand].Execute.
func (h *StartWorkflowHandler) Execute(ctx context.Context, msg StartWorkflowCommand) error {
	return h.inner.Execute(ctx, msg)
}
