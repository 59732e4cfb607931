package auditcmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docflow/internal/audit"
	"github.com/goliatone/go-docflow/internal/commands/auditcmd"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

func newExportFixture(t *testing.T) (uuid.UUID, audit.Service) {
	t.Helper()

	repo := workflow.NewMemoryRepository()
	docID := uuid.New()
	instanceID := uuid.New()
	recorded := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)

	for i, edge := range []string{"start_workflow", "submit_for_review"} {
		if _, err := repo.AppendTransition(context.Background(), &workflow.Transition{
			WorkflowInstanceID: instanceID,
			DocumentID:         docID,
			Edge:               edge,
			ToState:            domain.StateDraft,
			ActorID:            uuid.New(),
			ActorRole:          interfaces.RoleAuthor,
			Outcome:            workflow.OutcomeApplied,
			RecordedAt:         recorded.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("append transition: %v", err)
		}
	}

	svc, err := audit.New(repo)
	if err != nil {
		t.Fatalf("new audit service: %v", err)
	}
	return docID, svc
}

func TestExportCommandWritesTrail(t *testing.T) {
	docID, svc := newExportFixture(t)

	handler := auditcmd.NewExportTrailHandler(svc, nil)
	var buf bytes.Buffer
	if err := handler.Execute(context.Background(), auditcmd.ExportTrailCommand{
		DocumentID:  docID,
		Destination: &buf,
	}); err != nil {
		t.Fatalf("execute export: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestExportCommandValidation(t *testing.T) {
	docID, svc := newExportFixture(t)

	handler := auditcmd.NewExportTrailHandler(svc, nil)
	err := handler.Execute(context.Background(), auditcmd.ExportTrailCommand{DocumentID: docID})
	if err == nil {
		t.Fatal("expected validation error for missing destination")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}
