package workflow

import "strings"

// Request describes one requested state change. The engine never trusts
// the believed FromState; the Executor re-checks it against the persisted
// record inside the transaction.
type Request struct {
	InspectionID string
	FromState    State
	ToState      State
	ActorID      string
	ActorRole    Role
	ShopID       string
	Reason       string
}

// Facts carries the read-only record context the validator needs. The
// caller gathers these from persistence (shop-scoped) before calling
// Validate, which keeps this package free of I/O.
type Facts struct {
	ItemCount             int
	ItemsMissingCondition int
	OpenCriticalCount     int
	CustomerHasContact    bool
}

// Result is the outcome of validating one request. Warnings never block;
// they travel alongside success so a human can see residual risk.
type Result struct {
	Valid    bool
	Errors   []*TransitionError
	Warnings []string
}

func (r *Result) addError(kind ErrorKind, format string, args ...any) {
	r.Errors = append(r.Errors, NewError(kind, format, args...))
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Validate evaluates a requested transition against the state graph, the
// actor's role, and the record facts. Every check runs to completion so a
// single call yields the complete error set; nothing short-circuits.
func Validate(req Request, facts Facts) Result {
	res := Result{}

	// Graph and role checks are distinct failures: a missing edge is
	// invalid for everyone, a missing role is a permission problem on an
	// edge that does exist.
	if !EdgeExists(req.FromState, req.ToState) {
		res.addError(KindGraph, "no transition from %q to %q exists", req.FromState, req.ToState)
	} else if !RoleAllowed(req.FromState, req.ToState, req.ActorRole) {
		res.addError(KindAuthorization, "role %q is not permitted to transition from %q to %q",
			req.ActorRole, req.FromState, req.ToState)
	}

	switch req.ToState {
	case StatePendingReview:
		if facts.ItemCount == 0 {
			res.addError(KindValidation, "inspection must have at least one item before review")
		}
		if facts.ItemsMissingCondition > 0 {
			res.addError(KindValidation, "all items must have a condition status: %d item(s) missing one",
				facts.ItemsMissingCondition)
		}
		if facts.OpenCriticalCount > 0 {
			res.addWarning("inspection has critical findings; manager approval will be blocked until they are resolved")
		}
	case StateApproved:
		if facts.OpenCriticalCount > 0 {
			res.addError(KindValidation, "cannot approve: %d unresolved critical item(s)", facts.OpenCriticalCount)
		}
	case StateSentToCustomer:
		if !facts.CustomerHasContact {
			res.addError(KindValidation, "customer has no usable contact number")
		}
	case StateRejected:
		if strings.TrimSpace(req.Reason) == "" {
			res.addError(KindValidation, "a rejection requires a non-blank reason")
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}
