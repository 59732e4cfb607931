package domain

import (
	"strings"

	"github.com/goliatone/go-docflow/pkg/interfaces"
)

// Edge action names. These are the verbs callers request; the rule table binds
// each verb to exactly one source state.
const (
	EdgeSubmitForReview   = "submit_for_review"
	EdgeBeginReview       = "begin_review"
	EdgeCompleteReview    = "complete_review"
	EdgeSubmitForApproval = "submit_for_approval"
	EdgeBeginApproval     = "begin_approval"
	EdgeApprove           = "approve"
	EdgeMakeEffective     = "make_effective"
	EdgeSupersede         = "supersede"
	EdgeMakeObsolete      = "make_obsolete"
	EdgeTerminate         = "terminate"
)

// Edge declares one allowed transition: a named (from, to, required role)
// triple plus the guards the instance manager enforces before applying it.
type Edge struct {
	Name        string
	Description string
	From        State
	To          State

	// Roles lists the per-document roles allowed to trigger the edge. The
	// system actor is permitted only when SystemAllowed is set.
	Roles         []interfaces.Role
	SystemAllowed bool

	// RequiresSeparation enforces the author/reviewer/approver distinctness
	// rules for review- and approval-type edges.
	RequiresSeparation bool

	// RequiresEffectiveDate marks approval edges that must carry an effective
	// date; ImmediateTo is the landing state when that date is today or past.
	RequiresEffectiveDate bool
	ImmediateTo           State

	// RequiresComment marks edges that reject empty comments (cancellation).
	RequiresComment bool

	// RequiresNoDependents gates the edge on the external dependency check
	// reporting no live dependents.
	RequiresNoDependents bool
}

// AllowsRole reports whether the supplied per-document role may trigger the
// edge. The system pseudo-role matches only when the edge opts in.
func (e Edge) AllowsRole(role interfaces.Role) bool {
	if role == interfaces.RoleSystem {
		return e.SystemAllowed
	}
	for _, allowed := range e.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// edgeTable is the single source of truth for allowed transitions. It is
// assembled once at package init and never mutated afterwards; attempting an
// edge absent from this table yields ErrInvalidTransition at the service
// boundary rather than silently succeeding.
var edgeTable = buildEdgeTable()

func buildEdgeTable() []Edge {
	edges := []Edge{
		{
			Name:        EdgeSubmitForReview,
			Description: "Author submits the draft for review",
			From:        StateDraft,
			To:          StatePendingReview,
			Roles:       []interfaces.Role{interfaces.RoleAuthor},
		},
		{
			Name:               EdgeBeginReview,
			Description:        "Reviewer picks up the pending document",
			From:               StatePendingReview,
			To:                 StateUnderReview,
			Roles:              []interfaces.Role{interfaces.RoleReviewer},
			RequiresSeparation: true,
		},
		{
			Name:               EdgeCompleteReview,
			Description:        "Reviewer signs off the review",
			From:               StateUnderReview,
			To:                 StateReviewed,
			Roles:              []interfaces.Role{interfaces.RoleReviewer},
			RequiresSeparation: true,
		},
		{
			Name:        EdgeSubmitForApproval,
			Description: "Author forwards the reviewed document for approval",
			From:        StateReviewed,
			To:          StatePendingApproval,
			Roles:       []interfaces.Role{interfaces.RoleAuthor},
		},
		{
			Name:               EdgeBeginApproval,
			Description:        "Approver picks up the pending document",
			From:               StatePendingApproval,
			To:                 StateUnderApproval,
			Roles:              []interfaces.Role{interfaces.RoleApprover},
			RequiresSeparation: true,
		},
		{
			Name:                  EdgeApprove,
			Description:           "Approver signs off with an effective date",
			From:                  StateUnderApproval,
			To:                    StateApprovedPendingEffective,
			ImmediateTo:           StateApprovedAndEffective,
			Roles:                 []interfaces.Role{interfaces.RoleApprover},
			RequiresSeparation:    true,
			RequiresEffectiveDate: true,
		},
		{
			Name:          EdgeMakeEffective,
			Description:   "Scheduled effective date reached, or approver override",
			From:          StateApprovedPendingEffective,
			To:            StateEffective,
			Roles:         []interfaces.Role{interfaces.RoleApprover},
			SystemAllowed: true,
		},
		{
			Name:          EdgeSupersede,
			Description:   "Replacement document became effective",
			From:          StateEffective,
			To:            StateSuperseded,
			SystemAllowed: true,
		},
		{
			Name:          EdgeSupersede,
			Description:   "Replacement document became effective",
			From:          StateApprovedAndEffective,
			To:            StateSuperseded,
			SystemAllowed: true,
		},
		{
			Name:                 EdgeMakeObsolete,
			Description:          "Approver retires the document without replacement",
			From:                 StateEffective,
			To:                   StateObsolete,
			Roles:                []interfaces.Role{interfaces.RoleApprover},
			RequiresNoDependents: true,
		},
		{
			Name:                 EdgeMakeObsolete,
			Description:          "Approver retires the document without replacement",
			From:                 StateApprovedAndEffective,
			To:                   StateObsolete,
			Roles:                []interfaces.Role{interfaces.RoleApprover},
			RequiresNoDependents: true,
		},
	}

	for _, state := range orderedStates {
		if state.IsTerminal() {
			continue
		}
		edges = append(edges, Edge{
			Name:            EdgeTerminate,
			Description:     "Author cancels the workflow",
			From:            state,
			To:              StateTerminated,
			Roles:           []interfaces.Role{interfaces.RoleAuthor, interfaces.RoleAdmin},
			RequiresComment: true,
		})
	}

	return edges
}

var edgeIndex = buildEdgeIndex(edgeTable)

func buildEdgeIndex(edges []Edge) map[string]Edge {
	index := make(map[string]Edge, len(edges))
	for _, edge := range edges {
		index[edgeKey(edge.Name, edge.From)] = edge
	}
	return index
}

func edgeKey(name string, from State) string {
	return strings.ToLower(strings.TrimSpace(name)) + "::" + string(from)
}

// Edges returns a copy of the full rule table.
func Edges() []Edge {
	out := make([]Edge, len(edgeTable))
	copy(out, edgeTable)
	return out
}

// LookupEdge resolves the edge for an action name and source state. The
// boolean is false when the table declares no such transition.
func LookupEdge(name string, from State) (Edge, bool) {
	edge, ok := edgeIndex[edgeKey(name, from)]
	return edge, ok
}

// EdgeExists reports whether the action name exists from any source state.
// Used to distinguish a structurally unknown action from a stale-state
// request for an action that is merely not available right now.
func EdgeExists(name string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, edge := range edgeTable {
		if edge.Name == trimmed {
			return true
		}
	}
	return false
}

// EdgesFrom lists the transitions reachable from the supplied state.
func EdgesFrom(state State) []Edge {
	var out []Edge
	for _, edge := range edgeTable {
		if edge.From == state {
			out = append(out, edge)
		}
	}
	return out
}
