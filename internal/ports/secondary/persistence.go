// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application
// drives external systems.
package secondary

import (
	"context"
	"time"
)

// WorkflowStore defines the secondary port for inspection workflow
// persistence. Every method is explicitly shop-scoped; nothing is resolved
// from ambient context.
type WorkflowStore interface {
	// InTransaction runs fn inside a single database transaction. If fn
	// returns an error the transaction is rolled back before the error
	// propagates; otherwise it is committed. Writes outside fn are not
	// possible through this port.
	InTransaction(ctx context.Context, fn func(tx WorkflowTx) error) error

	// GetInspection retrieves an inspection outside any transaction, for
	// read-only pre-checks.
	GetInspection(ctx context.Context, shopID, inspectionID string) (*InspectionRecord, error)

	// ListItems retrieves the items of an inspection.
	ListItems(ctx context.Context, shopID, inspectionID string) ([]*ItemRecord, error)

	// CustomerHasContact reports whether the customer has a usable
	// contact number on file.
	CustomerHasContact(ctx context.Context, shopID, customerID string) (bool, error)

	// GetActor retrieves a shop actor, used for the defensive role
	// re-check on the override path.
	GetActor(ctx context.Context, shopID, actorID string) (*ActorRecord, error)

	// ListHistory returns the ordered state history of an inspection,
	// oldest first, with actor display names resolved.
	ListHistory(ctx context.Context, shopID, inspectionID string) ([]*HistoryRecord, error)

	// GetStatistics aggregates workflow activity for a shop over the
	// trailing window.
	GetStatistics(ctx context.Context, shopID string, windowDays int) (*StatisticsRecord, error)

	// ListByState returns current inspections in any of the given
	// states, most recently updated first.
	ListByState(ctx context.Context, shopID string, states []string, limit int) ([]*InspectionRecord, error)

	// CreateInspection persists a new inspection in the initial state.
	CreateInspection(ctx context.Context, rec *InspectionRecord) error

	// CreateItem persists a new inspection item.
	CreateItem(ctx context.Context, shopID string, item *ItemRecord) error
}

// WorkflowTx is the view of the store available inside one transaction.
// All reads observe the transaction's snapshot and all writes commit or
// roll back together.
type WorkflowTx interface {
	// GetInspectionForUpdate re-reads an inspection under the
	// transaction's write lock. This is the read the Executor compares
	// against the caller's believed (state, version).
	GetInspectionForUpdate(ctx context.Context, shopID, inspectionID string) (*InspectionRecord, error)

	// ListItems retrieves the items of an inspection inside the
	// transaction.
	ListItems(ctx context.Context, shopID, inspectionID string) ([]*ItemRecord, error)

	// CustomerHasContact reports contact presence inside the transaction.
	CustomerHasContact(ctx context.Context, shopID, customerID string) (bool, error)

	// ApplyTransition writes the state change guarded by the expected
	// version (compare-and-swap). Returns an error if no row matched.
	ApplyTransition(ctx context.Context, up *TransitionUpdate) error

	// InsertHistory appends exactly one immutable history entry.
	InsertHistory(ctx context.Context, entry *HistoryRecord) error
}

// InspectionRecord represents an inspection as stored in persistence.
type InspectionRecord struct {
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

// ItemRecord represents one inspection item. Items are read-only input to
// the engine; they are edited upstream.
type ItemRecord struct {
	ID              string
	InspectionID    string
	Name            string
	ConditionStatus *string
	IsCritical      bool
}

// ActorRecord represents a shop user as stored in persistence.
type ActorRecord struct {
	ID          string
	ShopID      string
	DisplayName string
	Role        string
}

// HistoryRecord is one append-only audit entry. Rows are never updated or
// deleted.
type HistoryRecord struct {
	ID            string
	InspectionID  string
	ShopID        string
	FromState     string
	ToState       string
	ChangedBy     string
	ChangedByName string
	ChangedByRole string
	Forced        bool
	ChangedAt     time.Time
	ChangeReason  string
}

// TransitionUpdate carries the guarded write for one transition. The
// store must apply it with WHERE version = FromVersion so a concurrent
// writer can never be silently overwritten.
type TransitionUpdate struct {
	InspectionID string
	ShopID       string
	FromVersion  int
	ToState      string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Duration     *time.Duration
}

// StatisticsRecord aggregates workflow activity for one shop.
type StatisticsRecord struct {
	WindowDays            int
	TotalTransitions      int
	Starts                int
	Submissions           int
	Approvals             int
	Rejections            int
	Completions           int
	ForcedTransitions     int
	AvgCompletionDuration time.Duration
	CompletedWithDuration int
	ByState               map[string]int
}
