package workflow

// Edge identifies one directed transition in the state graph.
type Edge struct {
	From State
	To   State
}

// transitionGraph maps each edge to the set of roles permitted to traverse
// it. Built once at package init and never mutated afterwards. An edge
// absent from this map is invalid for every role, which is a structurally
// different failure from a role missing on an edge that does exist.
var transitionGraph = map[Edge]map[Role]bool{
	{StateDraft, StateInProgress}:         {RoleTechnician: true},
	{StateInProgress, StatePendingReview}: {RoleTechnician: true},
	{StatePendingReview, StateApproved}:   {RoleManager: true},
	{StatePendingReview, StateRejected}:   {RoleManager: true},
	{StateRejected, StateInProgress}:      {RoleTechnician: true},
	{StateApproved, StateSentToCustomer}:  {RoleManager: true},
	{StateSentToCustomer, StateCompleted}: {RoleTechnician: true, RoleManager: true},
}

// EdgeExists reports whether (from, to) is present in the state graph at
// all, independent of role.
func EdgeExists(from, to State) bool {
	_, ok := transitionGraph[Edge{From: from, To: to}]
	return ok
}

// RoleAllowed reports whether the given role may traverse an edge that is
// known to exist. Returns false for edges not in the graph.
func RoleAllowed(from, to State, role Role) bool {
	roles, ok := transitionGraph[Edge{From: from, To: to}]
	if !ok {
		return false
	}
	return roles[role]
}

// ValidTransitions returns the set of target states reachable from the
// given state by the given role. The result is a fresh slice ordered by
// the canonical state order; callers may mutate it freely.
func ValidTransitions(from State, role Role) []State {
	var targets []State
	for _, to := range AllStates {
		if RoleAllowed(from, to, role) {
			targets = append(targets, to)
		}
	}
	return targets
}

// TerminalStates returns the states with no outgoing edges for any role.
// Terminal is not absolute: the override path can still move out of these.
func TerminalStates() []State {
	var terminal []State
	for _, from := range AllStates {
		hasOut := false
		for edge := range transitionGraph {
			if edge.From == from {
				hasOut = true
				break
			}
		}
		if !hasOut {
			terminal = append(terminal, from)
		}
	}
	return terminal
}
