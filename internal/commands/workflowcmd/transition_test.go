package workflowcmd_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/internal/commands/workflowcmd"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

func newService(t *testing.T, roles map[uuid.UUID]interfaces.Role) (workflow.Service, *workflow.MemoryRepository) {
	t.Helper()
	repo := workflow.NewMemoryRepository()
	gate, err := authorization.New(interfaces.RoleResolverFunc(func(_ context.Context, _ uuid.UUID, userID uuid.UUID) (interfaces.Role, error) {
		if role, ok := roles[userID]; ok {
			return role, nil
		}
		return interfaces.RoleNone, nil
	}))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	svc, err := workflow.New(repo, gate)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestStartCommandValidation(t *testing.T) {
	msg := workflowcmd.StartWorkflowCommand{}
	if err := msg.Validate(); err == nil {
		t.Fatal("expected validation error for empty message")
	}

	msg = workflowcmd.StartWorkflowCommand{
		DocumentID:  uuid.New(),
		InitiatedBy: uuid.New(),
		Kind:        workflow.KindUpVersion,
	}
	if err := msg.Validate(); err == nil {
		t.Fatal("expected validation error for up_version without target")
	}
}

func TestStartCommandOpensWorkflow(t *testing.T) {
	author := uuid.New()
	docID := uuid.New()
	svc, _ := newService(t, map[uuid.UUID]interfaces.Role{author: interfaces.RoleAuthor})

	handler := workflowcmd.NewStartWorkflowHandler(svc, nil)
	err := handler.Execute(context.Background(), workflowcmd.StartWorkflowCommand{
		DocumentID:  docID,
		InitiatedBy: author,
	})
	if err != nil {
		t.Fatalf("execute start: %v", err)
	}

	status, err := svc.Status(context.Background(), docID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status == nil || status.CurrentState != domain.StateDraft {
		t.Fatalf("expected draft workflow, got %+v", status)
	}
}

func TestTransitionCommandValidation(t *testing.T) {
	msg := workflowcmd.ApplyTransitionCommand{
		DocumentID: uuid.New(),
		ActorID:    uuid.New(),
		Edge:       domain.EdgeSubmitForReview,
		FromState:  domain.State("limbo"),
	}
	if err := msg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown from_state")
	}
}

func TestTransitionCommandAppliesEdge(t *testing.T) {
	author := uuid.New()
	docID := uuid.New()
	svc, _ := newService(t, map[uuid.UUID]interfaces.Role{author: interfaces.RoleAuthor})

	start := workflowcmd.NewStartWorkflowHandler(svc, nil)
	if err := start.Execute(context.Background(), workflowcmd.StartWorkflowCommand{
		DocumentID:  docID,
		InitiatedBy: author,
	}); err != nil {
		t.Fatalf("execute start: %v", err)
	}

	transition := workflowcmd.NewApplyTransitionHandler(svc, nil)
	if err := transition.Execute(context.Background(), workflowcmd.ApplyTransitionCommand{
		DocumentID: docID,
		ActorID:    author,
		Edge:       domain.EdgeSubmitForReview,
		FromState:  domain.StateDraft,
	}); err != nil {
		t.Fatalf("execute transition: %v", err)
	}

	status, _ := svc.Status(context.Background(), docID)
	if status.CurrentState != domain.StatePendingReview {
		t.Fatalf("expected pending_review, got %q", status.CurrentState)
	}
}

func TestTransitionCommandWrapsLifecycleFailures(t *testing.T) {
	author := uuid.New()
	docID := uuid.New()
	svc, _ := newService(t, map[uuid.UUID]interfaces.Role{author: interfaces.RoleAuthor})

	transition := workflowcmd.NewApplyTransitionHandler(svc, nil,
		commands.WithTimeout[workflowcmd.ApplyTransitionCommand](time.Second))
	err := transition.Execute(context.Background(), workflowcmd.ApplyTransitionCommand{
		DocumentID: docID,
		ActorID:    author,
		Edge:       domain.EdgeSubmitForReview,
	})
	if err == nil {
		t.Fatal("expected lifecycle failure for missing workflow")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}
