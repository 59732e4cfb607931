package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	docflow "github.com/goliatone/go-docflow"
	"github.com/goliatone/go-docflow/internal/di"
	"github.com/google/uuid"
)

// Walks one document from draft to effective against the in-memory backend
// and prints the audit trail. Run with `go run ./cmd/example`.
func main() {
	ctx := context.Background()

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
	cfg.Features.Logger = true

	module, err := docflow.New(cfg, di.WithRoleResolver(roles))
	if err != nil {
		log.Fatalf("new docflow module: %v", err)
	}

	docID := uuid.New()
	workflows := module.Workflows()

	if _, err := workflows.Start(ctx, docflow.StartRequest{
		DocumentID:  docID,
		InitiatedBy: author,
	}); err != nil {
		log.Fatalf("start workflow: %v", err)
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
			log.Fatalf("apply %s: %v", step.edge, err)
		}
	}

	// A same-day effective date promotes the document immediately.
	today := time.Now().UTC()
	instance, err := workflows.Apply(ctx, docflow.TransitionRequest{
		DocumentID:    docID,
		Edge:          docflow.EdgeApprove,
		Actor:         docflow.UserActor(approver),
		EffectiveDate: &today,
	})
	if err != nil {
		log.Fatalf("approve: %v", err)
	}
	fmt.Printf("document %s is now %s\n", docID, instance.CurrentState)

	actions, err := workflows.AvailableActions(ctx, docID, docflow.UserActor(author))
	if err != nil {
		log.Fatalf("available actions: %v", err)
	}
	for _, edge := range actions {
		fmt.Printf("author may apply: %s -> %s\n", edge.Name, edge.To)
	}

	trail, err := module.Audit().DocumentTrail(ctx, docID)
	if err != nil {
		log.Fatalf("document trail: %v", err)
	}
	fmt.Printf("audit trail (%d rows):\n", len(trail))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, row := range trail {
		if err := enc.Encode(map[string]any{
			"seq":     row.Seq,
			"edge":    row.Edge,
			"from":    row.FromState,
			"to":      row.ToState,
			"role":    row.ActorRole,
			"outcome": row.Outcome,
		}); err != nil {
			log.Fatalf("encode row: %v", err)
		}
	}
}
