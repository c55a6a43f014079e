// Package workflow contains the pure business logic for the inspection
// workflow engine. This is part of the Functional Core - no I/O, only
// pure functions and immutable lookup tables.
package workflow

import "fmt"

// State represents the possible workflow states of an inspection.
type State string

const (
	StateDraft          State = "draft"
	StateInProgress     State = "in_progress"
	StatePendingReview  State = "pending_review"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
	StateSentToCustomer State = "sent_to_customer"
	StateCompleted      State = "completed"
)

// AllStates lists every member of the closed state set, in lifecycle order.
var AllStates = []State{
	StateDraft,
	StateInProgress,
	StatePendingReview,
	StateApproved,
	StateRejected,
	StateSentToCustomer,
	StateCompleted,
}

// ParseState validates a raw state value against the closed set.
// Unknown values fail loudly rather than silently passing through.
func ParseState(raw string) (State, error) {
	for _, s := range AllStates {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown workflow state %q", raw)
}

// InitialState returns the state a new inspection record starts in.
func InitialState() State {
	return StateDraft
}

// Role represents an actor role recognized by the workflow engine.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// AllRoles lists every member of the closed role set.
var AllRoles = []Role{RoleTechnician, RoleManager, RoleAdmin}

// ParseRole validates a raw role value against the closed set.
func ParseRole(raw string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown actor role %q", raw)
}
