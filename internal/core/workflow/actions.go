package workflow

import (
	"fmt"
	"time"
)

// Snapshot is the minimal view of a persisted inspection an action needs.
type Snapshot struct {
	InspectionID string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Mutation is the value object an action produces: the field stamps to
// apply in the same transaction as the state change. Nil fields are left
// untouched.
type Mutation struct {
	StartedAt   *time.Time
	CompletedAt *time.Time
	Duration    *time.Duration
}

// ActionFunc computes the deterministic side effect for one edge. Actions
// are pure: they take the current snapshot and the transaction's clock and
// return a Mutation. Anything requiring external I/O (notifications,
// uploads) belongs to the caller reacting to the result, never here.
type ActionFunc func(snap Snapshot, now time.Time) (Mutation, error)

// actionRegistry maps edges to their in-transaction actions. Edges not
// present are no-ops. Built once at package init, never mutated.
var actionRegistry = map[Edge]ActionFunc{
	{StateDraft, StateInProgress}:         stampStartedAt,
	{StateInProgress, StatePendingReview}: computeInspectionDuration,
	{StateSentToCustomer, StateCompleted}: stampCompletedAt,
}

// ActionFor returns the action registered for (from, to), if any.
func ActionFor(from, to State) (ActionFunc, bool) {
	fn, ok := actionRegistry[Edge{From: from, To: to}]
	return fn, ok
}

func stampStartedAt(snap Snapshot, now time.Time) (Mutation, error) {
	return Mutation{StartedAt: &now}, nil
}

func computeInspectionDuration(snap Snapshot, now time.Time) (Mutation, error) {
	if snap.StartedAt == nil {
		return Mutation{}, fmt.Errorf("inspection %s has no started_at to compute a duration from", snap.InspectionID)
	}
	d := now.Sub(*snap.StartedAt)
	if d < 0 {
		d = 0
	}
	return Mutation{Duration: &d}, nil
}

func stampCompletedAt(snap Snapshot, now time.Time) (Mutation, error) {
	return Mutation{CompletedAt: &now}, nil
}
