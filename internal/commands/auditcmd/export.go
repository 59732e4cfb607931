package auditcmd

import (
	"context"
	"io"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-docflow/internal/audit"
	"github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

const exportTrailMessageType = "docflow.audit.export"

// ExportTrailCommand writes a document's transition trail to a destination
// writer as JSON.
type ExportTrailCommand struct {
	DocumentID  uuid.UUID `json:"document_id"`
	Destination io.Writer `json:"-"`
}

// Type implements command.Message.
func (ExportTrailCommand) Type() string { return exportTrailMessageType }

// Validate ensures the message names a document and a destination.
func (m ExportTrailCommand) Validate() error {
	errs := validation.Errors{}
	if m.DocumentID == uuid.Nil {
		errs["document_id"] = validation.NewError("docflow.audit.export.document_id_required", "document_id is required")
	}
	if m.Destination == nil {
		errs["destination"] = validation.NewError("docflow.audit.export.destination_required", "destination writer is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ExportTrailHandler exports audit trails via the audit service.
type ExportTrailHandler struct {
	inner *commands.Handler[ExportTrailCommand]
}

// NewExportTrailHandler constructs a handler wired to the audit service.
func NewExportTrailHandler(service audit.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ExportTrailCommand]) *ExportTrailHandler {
	exec := func(ctx context.Context, msg ExportTrailCommand) error {
		return service.Export(ctx, msg.DocumentID, msg.Destination)
	}

	handlerOpts := []commands.HandlerOption[ExportTrailCommand]{
		commands.WithLogger[ExportTrailCommand](logger),
		commands.WithOperation[ExportTrailCommand]("audit.export"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExportTrailHandler{
		inner: commands.NewHandler[ExportTrailCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExportTrailCommand].Execute.
func (h *ExportTrailHandler) Execute(ctx context.Context, msg ExportTrailCommand) error {
	return h.inner.Execute(ctx, msg)
}
