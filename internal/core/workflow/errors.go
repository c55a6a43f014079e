package workflow

import "fmt"

// ErrorKind classifies a transition failure so callers can decide whether
// to surface, retry, or escalate.
type ErrorKind string

const (
	// KindValidation covers business-rule failures: missing items,
	// incomplete statuses, unresolved critical items, missing contact,
	// missing reason.
	KindValidation ErrorKind = "validation"
	// KindConcurrency means the persisted state disagrees with the
	// caller's belief. Always retryable after a refetch.
	KindConcurrency ErrorKind = "concurrency"
	// KindAuthorization means the edge exists but the actor's role may
	// not traverse it.
	KindAuthorization ErrorKind = "authorization"
	// KindGraph means the edge does not exist at all, for any role.
	KindGraph ErrorKind = "graph"
	// KindPersistence covers transaction and statement failures. The
	// Executor rolls back before returning one of these.
	KindPersistence ErrorKind = "persistence"
)

// TransitionError is one hard failure of a requested transition.
type TransitionError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, if any
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NewError builds a TransitionError with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *TransitionError {
	return &TransitionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a TransitionError around an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *TransitionError {
	return &TransitionError{Kind: kind, Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// ConflictError reports an optimistic-concurrency mismatch between the
// state the caller believed and the state actually persisted. It names
// both sides so the caller can refetch and retry.
type ConflictError struct {
	InspectionID    string
	ExpectedState   State
	FoundState      State
	ExpectedVersion int
	FoundVersion    int
}

func (e *ConflictError) Error() string {
	// A negative expected version means the caller only asserted the
	// state, so the message must not echo an unchecked version.
	if e.ExpectedVersion < 0 {
		return fmt.Sprintf("inspection %s has changed: expected state %q, found %q (version %d)",
			e.InspectionID, e.ExpectedState, e.FoundState, e.FoundVersion)
	}
	return fmt.Sprintf("inspection %s has changed: expected state %q (version %d), found %q (version %d)",
		e.InspectionID, e.ExpectedState, e.ExpectedVersion, e.FoundState, e.FoundVersion)
}

// AsTransitionError converts the conflict into the list form used by
// TransitionResult.
func (e *ConflictError) AsTransitionError() *TransitionError {
	return &TransitionError{Kind: KindConcurrency, Message: e.Error()}
}
