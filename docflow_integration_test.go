package docflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	docflow "github.com/goliatone/go-docflow"
	"github.com/goliatone/go-docflow/internal/di"
	"github.com/goliatone/go-docflow/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestModule_LifecycleWithBunStorage(t *testing.T) {
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)
	registerWorkflowModels(t, bunDB)

	author := uuid.New()
	reviewer := uuid.New()
	approver := uuid.New()
	roles := docflow.RoleResolverFunc(func(ctx context.Context, documentID, userID uuid.UUID) (docflow.Role, error) {
		switch userID {
		case author:
			return docflow.RoleAuthor, nil
		case reviewer:
			return docflow.RoleReviewer, nil
		case approver:
			return docflow.RoleApprover, nil
		}
		return docflow.RoleNone, nil
	})

	cfg := docflow.DefaultConfig()
	module, err := docflow.New(cfg,
		di.WithBunDB(bunDB),
		di.WithRoleResolver(roles),
	)
	if err != nil {
		t.Fatalf("new docflow module: %v", err)
	}

	docID := uuid.New()
	workflows := module.Workflows()

	if _, err := workflows.Start(ctx, docflow.StartRequest{
		DocumentID:  docID,
		InitiatedBy: author,
	}); err != nil {
		t.Fatalf("start workflow: %v", err)
	}

	steps := []struct {
		edge  string
		actor uuid.UUID
	}{
		{docflow.EdgeSubmitForReview, author},
		{docflow.EdgeBeginReview, reviewer},
		{docflow.EdgeCompleteReview, reviewer},
		{docflow.EdgeSubmitForApproval, author},
		{docflow.EdgeBeginApproval, approver},
	}
	for _, step := range steps {
		if _, err := workflows.Apply(ctx, docflow.TransitionRequest{
			DocumentID: docID,
			Edge:       step.edge,
			Actor:      docflow.UserActor(step.actor),
		}); err != nil {
			t.Fatalf("apply %s: %v", step.edge, err)
		}
	}

	effective := time.Now().UTC().Add(48 * time.Hour)
	instance, err := workflows.Apply(ctx, docflow.TransitionRequest{
		DocumentID:    docID,
		Edge:          docflow.EdgeApprove,
		Actor:         docflow.UserActor(approver),
		EffectiveDate: &effective,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if instance.CurrentState != docflow.StateApprovedPendingEffective {
		t.Fatalf("expected approved_pending_effective, got %s", instance.CurrentState)
	}
	if instance.ScheduledEffectiveDate == nil {
		t.Fatal("expected scheduled effective date to be stored")
	}

	// The document is due once the scheduled date arrives.
	result, err := module.Sweeper().Run(ctx, effective.Add(time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(result.Promoted) != 1 || result.Promoted[0] != docID {
		t.Fatalf("expected %s promoted, got %+v", docID, result.Promoted)
	}

	status, err := workflows.Status(ctx, docID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CurrentState != docflow.StateEffective {
		t.Fatalf("expected effective, got %s", status.CurrentState)
	}

	trail, err := module.Audit().DocumentTrail(ctx, docID)
	if err != nil {
		t.Fatalf("document trail: %v", err)
	}
	// start + 6 user edges + the sweep promotion.
	if len(trail) != 8 {
		t.Fatalf("expected 8 audit rows, got %d", len(trail))
	}
	for i, row := range trail {
		if row.Outcome != docflow.OutcomeApplied {
			t.Fatalf("row %d: expected applied outcome, got %s", i, row.Outcome)
		}
		if row.Seq != int64(i+1) {
			t.Fatalf("row %d: expected seq %d, got %d", i, i+1, row.Seq)
		}
	}
	last := trail[len(trail)-1]
	if last.Edge != docflow.EdgeMakeEffective || last.ActorRole != docflow.RoleSystem {
		t.Fatalf("expected system make_effective tail row, got %s by %s", last.Edge, last.ActorRole)
	}

	if err := module.Audit().Verify(ctx, instance.ID); err != nil {
		t.Fatalf("verify trail: %v", err)
	}

	var buf bytes.Buffer
	if err := module.Audit().Export(ctx, docID, &buf); err != nil {
		t.Fatalf("export trail: %v", err)
	}
	var exported []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(exported) != len(trail) {
		t.Fatalf("expected %d exported rows, got %d", len(trail), len(exported))
	}
}

func TestModule_RejectionsLeaveAuditRows(t *testing.T) {
	ctx := context.Background()

	author := uuid.New()
	roles := docflow.RoleResolverFunc(func(ctx context.Context, documentID, userID uuid.UUID) (docflow.Role, error) {
		if userID == author {
			return docflow.RoleAuthor, nil
		}
		return docflow.RoleNone, nil
	})

	module, err := docflow.New(docflow.DefaultConfig(), di.WithRoleResolver(roles))
	if err != nil {
		t.Fatalf("new docflow module: %v", err)
	}

	docID := uuid.New()
	if _, err := module.Workflows().Start(ctx, docflow.StartRequest{
		DocumentID:  docID,
		InitiatedBy: author,
	}); err != nil {
		t.Fatalf("start workflow: %v", err)
	}

	if _, err := module.Workflows().Apply(ctx, docflow.TransitionRequest{
		DocumentID: docID,
		Edge:       docflow.EdgeBeginReview,
		Actor:      docflow.UserActor(author),
	}); !errors.Is(err, docflow.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	trail, err := module.Audit().DocumentTrail(ctx, docID)
	if err != nil {
		t.Fatalf("document trail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected start row plus rejection, got %d rows", len(trail))
	}
	if trail[1].Outcome != docflow.OutcomeRejected {
		t.Fatalf("expected rejected outcome, got %s", trail[1].Outcome)
	}
	if trail[1].RejectionReason == "" {
		t.Fatal("expected rejection reason to be recorded")
	}
}

func registerWorkflowModels(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	models := []any{
		(*docflow.Instance)(nil),
		(*docflow.Transition)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table %T: %v", model, err)
		}
	}
}
