// Package primary defines the primary ports (driving adapters) for the
// application: the interfaces through which callers drive the engine.
package primary

import (
	"context"
	"time"
)

// WorkflowService defines the primary port for inspection workflow
// operations. The calling layer alone translates results to HTTP, fires
// outbound notifications, and updates UIs; the engine never reaches out.
type WorkflowService interface {
	// ExecuteTransition validates and applies one state change as a
	// single atomic unit. Hard errors are reported in the result; only
	// infrastructure failures surface as a Go error.
	ExecuteTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// CanTransition runs the validator read-only, for UI affordances.
	// It never mutates anything and never opens a write transaction.
	CanTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// ForceTransition bypasses normal validation. It requires a
	// non-blank reason and an actor holding the admin role, and its
	// history entry is tagged as forced.
	ForceTransition(ctx context.Context, req ForceTransitionRequest) (*TransitionResult, error)

	// GetCurrentState returns the persisted state and version of an
	// inspection.
	GetCurrentState(ctx context.Context, shopID, inspectionID string) (*CurrentState, error)

	// GetWorkflowHistory returns the ordered audit trail of an
	// inspection, oldest first.
	GetWorkflowHistory(ctx context.Context, shopID, inspectionID string) ([]*HistoryEntry, error)

	// GetWorkflowStatistics aggregates transition activity over the
	// trailing window.
	GetWorkflowStatistics(ctx context.Context, shopID string, windowDays int) (*WorkflowStatistics, error)

	// ListInspectionsByState returns a current snapshot of inspections
	// in the given states.
	ListInspectionsByState(ctx context.Context, shopID string, states []string, limit int) ([]*Inspection, error)

	// CreateInspection creates a new inspection in the initial state.
	// This is the upstream entry point; after creation the record is
	// mutated exclusively through ExecuteTransition/ForceTransition.
	CreateInspection(ctx context.Context, req CreateInspectionRequest) (*Inspection, error)

	// AddItem attaches an item to a draft inspection.
	AddItem(ctx context.Context, req AddItemRequest) error

	// ListItems returns the items of an inspection.
	ListItems(ctx context.Context, shopID, inspectionID string) ([]*InspectionItem, error)
}

// TransitionRequest contains parameters for one requested state change.
// FromState is the caller's belief; the engine re-checks it against the
// persisted record inside the transaction. ExpectedVersion < 0 skips the
// version comparison and relies on the state comparison alone.
type TransitionRequest struct {
	InspectionID    string
	ShopID          string
	FromState       string
	ToState         string
	ExpectedVersion int
	ActorID         string
	ActorRole       string
	Reason          string
}

// ForceTransitionRequest contains parameters for a privileged override.
// There is no believed from-state: the override moves the record from
// whatever state it is currently in.
type ForceTransitionRequest struct {
	InspectionID string
	ShopID       string
	ToState      string
	ActorID      string
	Reason       string
}

// TransitionError is one hard failure, classified by kind
// (validation, concurrency, authorization, graph, persistence).
type TransitionError struct {
	Kind    string
	Message string
}

// TransitionResult reports the outcome of a transition attempt. Warnings
// accompany success; errors mean nothing was written.
type TransitionResult struct {
	Success  bool
	Errors   []TransitionError
	Warnings []string
	Version  int // persisted version after a successful transition
}

// CurrentState is the cheap snapshot answer for UI pre-checks.
type CurrentState struct {
	InspectionID string
	State        string
	Version      int
	UpdatedAt    time.Time
}

// HistoryEntry is one immutable audit record as exposed to callers.
type HistoryEntry struct {
	ID            string
	InspectionID  string
	FromState     string
	ToState       string
	ChangedBy     string
	ChangedByName string
	ChangedByRole string
	Forced        bool
	ChangedAt     time.Time
	ChangeReason  string
}

// WorkflowStatistics aggregates a shop's transition activity.
type WorkflowStatistics struct {
	WindowDays            int
	TotalTransitions      int
	Starts                int
	Submissions           int
	Approvals             int
	Rejections            int
	Completions           int
	ForcedTransitions     int
	AvgCompletionDuration time.Duration
	ByState               map[string]int
}

// Inspection is an inspection record as exposed to callers.
type Inspection struct {
	ID           string
	ShopID       string
	TechnicianID string
	CustomerID   string
	State        string
	Version      int
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Duration     *time.Duration
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InspectionItem is one inspection item as exposed to callers.
type InspectionItem struct {
	ID              string
	InspectionID    string
	Name            string
	ConditionStatus string // empty when not yet recorded
	IsCritical      bool
}

// CreateInspectionRequest contains parameters for creating an inspection.
type CreateInspectionRequest struct {
	InspectionID string // optional; generated when empty
	ShopID       string
	TechnicianID string
	CustomerID   string
}

// AddItemRequest contains parameters for attaching an item.
type AddItemRequest struct {
	ShopID          string
	InspectionID    string
	Name            string
	ConditionStatus string // empty for not yet recorded
	IsCritical      bool
}
