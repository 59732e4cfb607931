package domain_test

import (
	"testing"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/pkg/interfaces"
)

func TestEdgeTableReferencesKnownStates(t *testing.T) {
	for _, edge := range domain.Edges() {
		if !domain.Known(edge.From) {
			t.Fatalf("edge %s references unknown source state %s", edge.Name, edge.From)
		}
		if !domain.Known(edge.To) {
			t.Fatalf("edge %s references unknown target state %s", edge.Name, edge.To)
		}
		if edge.ImmediateTo != "" && !domain.Known(edge.ImmediateTo) {
			t.Fatalf("edge %s references unknown immediate state %s", edge.Name, edge.ImmediateTo)
		}
	}
}

func TestExactlyOneInitialState(t *testing.T) {
	initial := 0
	for _, state := range domain.States() {
		if state.IsInitial() {
			initial++
		}
	}
	if initial != 1 {
		t.Fatalf("expected exactly one initial state got %d", initial)
	}
	if !domain.InitialState().IsInitial() {
		t.Fatalf("InitialState %s is not flagged initial", domain.InitialState())
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, state := range domain.States() {
		if !state.IsTerminal() {
			continue
		}
		if edges := domain.EdgesFrom(state); len(edges) != 0 {
			t.Fatalf("terminal state %s has %d outgoing edges", state, len(edges))
		}
	}
}

func TestEveryNonTerminalStateCanTerminate(t *testing.T) {
	for _, state := range domain.States() {
		if state.IsTerminal() {
			continue
		}
		edge, ok := domain.LookupEdge(domain.EdgeTerminate, state)
		if !ok {
			t.Fatalf("state %s has no terminate edge", state)
		}
		if edge.To != domain.StateTerminated {
			t.Fatalf("terminate from %s lands in %s", state, edge.To)
		}
		if !edge.RequiresComment {
			t.Fatalf("terminate from %s does not require a comment", state)
		}
	}
}

func TestLookupEdgeUnknown(t *testing.T) {
	if _, ok := domain.LookupEdge("publish", domain.StateDraft); ok {
		t.Fatal("expected unknown edge lookup to fail")
	}
	if _, ok := domain.LookupEdge(domain.EdgeApprove, domain.StateDraft); ok {
		t.Fatal("approve must not be reachable from draft")
	}
}

func TestApproveEdgeHasDateBranch(t *testing.T) {
	edge, ok := domain.LookupEdge(domain.EdgeApprove, domain.StateUnderApproval)
	if !ok {
		t.Fatal("approve edge missing")
	}
	if !edge.RequiresEffectiveDate {
		t.Fatal("approve edge must require an effective date")
	}
	if edge.To != domain.StateApprovedPendingEffective {
		t.Fatalf("approve future branch lands in %s", edge.To)
	}
	if edge.ImmediateTo != domain.StateApprovedAndEffective {
		t.Fatalf("approve immediate branch lands in %s", edge.ImmediateTo)
	}
}

func TestMakeEffectiveAllowsSystemActor(t *testing.T) {
	edge, ok := domain.LookupEdge(domain.EdgeMakeEffective, domain.StateApprovedPendingEffective)
	if !ok {
		t.Fatal("make_effective edge missing")
	}
	if !edge.AllowsRole(interfaces.RoleSystem) {
		t.Fatal("make_effective must allow the system actor")
	}
	if !edge.AllowsRole(interfaces.RoleApprover) {
		t.Fatal("make_effective must allow approver override")
	}
	if edge.AllowsRole(interfaces.RoleAuthor) {
		t.Fatal("make_effective must not allow the author")
	}
}

func TestSystemActorDoesNotMatchRegularEdges(t *testing.T) {
	edge, ok := domain.LookupEdge(domain.EdgeBeginReview, domain.StatePendingReview)
	if !ok {
		t.Fatal("begin_review edge missing")
	}
	if edge.AllowsRole(interfaces.RoleSystem) {
		t.Fatal("system actor must not trigger review edges")
	}
}
