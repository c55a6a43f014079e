// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/garage/internal/ports/secondary"
)

// WorkflowStore implements secondary.WorkflowStore with SQLite.
type WorkflowStore struct {
	db *sql.DB
}

// NewWorkflowStore creates a new SQLite workflow store.
func NewWorkflowStore(db *sql.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

const inspectionSelectCols = "id, shop_id, technician_id, customer_id, workflow_state, version, started_at, completed_at, inspection_duration_seconds, created_at, updated_at"

// scanInspection scans an inspection row into an InspectionRecord.
func scanInspection(scanner interface {
	Scan(dest ...any) error
}) (*secondary.InspectionRecord, error) {
	var (
		startedAt       sql.NullTime
		completedAt     sql.NullTime
		durationSeconds sql.NullInt64
	)

	record := &secondary.InspectionRecord{}
	err := scanner.Scan(
		&record.ID, &record.ShopID, &record.TechnicianID, &record.CustomerID,
		&record.State, &record.Version,
		&startedAt, &completedAt, &durationSeconds,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		t := startedAt.Time
		record.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}
	if durationSeconds.Valid {
		d := time.Duration(durationSeconds.Int64) * time.Second
		record.Duration = &d
	}

	return record, nil
}

func getInspection(ctx context.Context, q queryRower, shopID, inspectionID string) (*secondary.InspectionRecord, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+inspectionSelectCols+" FROM inspections WHERE id = ? AND shop_id = ?",
		inspectionID, shopID,
	)

	record, err := scanInspection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inspection %s not found", inspectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return record, nil
}

func listItems(ctx context.Context, q querier, shopID, inspectionID string) ([]*secondary.ItemRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT it.id, it.inspection_id, it.name, it.condition_status, it.is_critical
		 FROM inspection_items it
		 JOIN inspections i ON i.id = it.inspection_id
		 WHERE it.inspection_id = ? AND i.shop_id = ?
		 ORDER BY it.created_at ASC, it.id ASC`,
		inspectionID, shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*secondary.ItemRecord
	for rows.Next() {
		var condition sql.NullString
		item := &secondary.ItemRecord{}
		if err := rows.Scan(&item.ID, &item.InspectionID, &item.Name, &condition, &item.IsCritical); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if condition.Valid {
			item.ConditionStatus = &condition.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func customerHasContact(ctx context.Context, q queryRower, shopID, customerID string) (bool, error) {
	var phone sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT phone FROM customers WHERE id = ? AND shop_id = ?",
		customerID, shopID,
	).Scan(&phone)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get customer: %w", err)
	}
	return phone.Valid && strings.TrimSpace(phone.String) != "", nil
}

// querier and queryRower let the read helpers run against either the
// pool or an open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTransaction runs fn inside a single transaction. A non-nil error
// from fn rolls everything back before the error propagates.
func (s *WorkflowStore) InTransaction(ctx context.Context, fn func(tx secondary.WorkflowTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&workflowTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (rolling back after: %w)", rbErr, err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetInspection retrieves an inspection for read-only pre-checks.
func (s *WorkflowStore) GetInspection(ctx context.Context, shopID, inspectionID string) (*secondary.InspectionRecord, error) {
	return getInspection(ctx, s.db, shopID, inspectionID)
}

// ListItems retrieves the items of an inspection.
func (s *WorkflowStore) ListItems(ctx context.Context, shopID, inspectionID string) ([]*secondary.ItemRecord, error) {
	return listItems(ctx, s.db, shopID, inspectionID)
}

// CustomerHasContact reports whether the customer has a usable phone
// number on file.
func (s *WorkflowStore) CustomerHasContact(ctx context.Context, shopID, customerID string) (bool, error) {
	return customerHasContact(ctx, s.db, shopID, customerID)
}

// GetActor retrieves a shop user.
func (s *WorkflowStore) GetActor(ctx context.Context, shopID, actorID string) (*secondary.ActorRecord, error) {
	actor := &secondary.ActorRecord{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, shop_id, display_name, role FROM users WHERE id = ? AND shop_id = ?",
		actorID, shopID,
	).Scan(&actor.ID, &actor.ShopID, &actor.DisplayName, &actor.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("actor %s not found", actorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return actor, nil
}

// ListHistory returns the ordered state history of an inspection, oldest
// first, with actor display names resolved where known.
func (s *WorkflowStore) ListHistory(ctx context.Context, shopID, inspectionID string) ([]*secondary.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.inspection_id, h.shop_id, h.from_state, h.to_state,
		        h.changed_by, COALESCE(u.display_name, ''), h.changed_by_role,
		        h.forced, h.changed_at, COALESCE(h.change_reason, '')
		 FROM inspection_state_history h
		 LEFT JOIN users u ON u.id = h.changed_by AND u.shop_id = h.shop_id
		 WHERE h.inspection_id = ? AND h.shop_id = ?
		 ORDER BY h.changed_at ASC, h.rowid ASC`,
		inspectionID, shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.HistoryRecord
	for rows.Next() {
		entry := &secondary.HistoryRecord{}
		if err := rows.Scan(
			&entry.ID, &entry.InspectionID, &entry.ShopID, &entry.FromState, &entry.ToState,
			&entry.ChangedBy, &entry.ChangedByName, &entry.ChangedByRole,
			&entry.Forced, &entry.ChangedAt, &entry.ChangeReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetStatistics aggregates workflow activity for a shop over the
// trailing window.
func (s *WorkflowStore) GetStatistics(ctx context.Context, shopID string, windowDays int) (*secondary.StatisticsRecord, error) {
	stats := &secondary.StatisticsRecord{
		WindowDays: windowDays,
		ByState:    make(map[string]int),
	}
	window := fmt.Sprintf("-%d days", windowDays)

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(forced), 0),
		        COALESCE(SUM(CASE WHEN from_state = 'draft' AND to_state = 'in_progress' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN to_state = 'pending_review' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN to_state = 'approved' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN to_state = 'rejected' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN to_state = 'completed' THEN 1 ELSE 0 END), 0)
		 FROM inspection_state_history
		 WHERE shop_id = ? AND changed_at >= datetime('now', ?)`,
		shopID, window,
	).Scan(
		&stats.TotalTransitions, &stats.ForcedTransitions,
		&stats.Starts, &stats.Submissions,
		&stats.Approvals, &stats.Rejections, &stats.Completions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate history: %w", err)
	}

	var avgSeconds sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT AVG(inspection_duration_seconds), COUNT(*)
		 FROM inspections
		 WHERE shop_id = ? AND inspection_duration_seconds IS NOT NULL
		   AND completed_at IS NOT NULL AND completed_at >= datetime('now', ?)`,
		shopID, window,
	).Scan(&avgSeconds, &stats.CompletedWithDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate durations: %w", err)
	}
	if avgSeconds.Valid {
		stats.AvgCompletionDuration = time.Duration(avgSeconds.Float64 * float64(time.Second))
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT workflow_state, COUNT(*) FROM inspections WHERE shop_id = ? GROUP BY workflow_state",
		shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count by state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		stats.ByState[state] = count
	}
	return stats, rows.Err()
}

// ListByState returns inspections currently in any of the given states,
// most recently updated first.
func (s *WorkflowStore) ListByState(ctx context.Context, shopID string, states []string, limit int) ([]*secondary.InspectionRecord, error) {
	if len(states) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(states)-1) + "?"
	query := "SELECT " + inspectionSelectCols + " FROM inspections WHERE shop_id = ? AND workflow_state IN (" + placeholders + ") ORDER BY updated_at DESC"
	args := []any{shopID}
	for _, st := range states {
		args = append(args, st)
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	defer rows.Close()

	var records []*secondary.InspectionRecord
	for rows.Next() {
		record, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CreateInspection persists a new inspection in the initial state.
func (s *WorkflowStore) CreateInspection(ctx context.Context, rec *secondary.InspectionRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO inspections (id, shop_id, technician_id, customer_id, workflow_state, version) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.ShopID, rec.TechnicianID, rec.CustomerID, rec.State, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create inspection: %w", err)
	}
	return nil
}

// CreateItem persists a new inspection item after verifying the parent
// belongs to the shop.
func (s *WorkflowStore) CreateItem(ctx context.Context, shopID string, item *secondary.ItemRecord) error {
	if _, err := getInspection(ctx, s.db, shopID, item.InspectionID); err != nil {
		return err
	}

	var condition sql.NullString
	if item.ConditionStatus != nil && *item.ConditionStatus != "" {
		condition = sql.NullString{String: *item.ConditionStatus, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO inspection_items (id, inspection_id, name, condition_status, is_critical) VALUES (?, ?, ?, ?, ?)",
		item.ID, item.InspectionID, item.Name, condition, item.IsCritical,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// workflowTx implements secondary.WorkflowTx over one open transaction.
type workflowTx struct {
	tx *sql.Tx
}

// GetInspectionForUpdate re-reads the inspection inside the transaction.
// With _txlock=immediate the write lock is already held, so this read is
// the authoritative pre-write snapshot.
func (t *workflowTx) GetInspectionForUpdate(ctx context.Context, shopID, inspectionID string) (*secondary.InspectionRecord, error) {
	return getInspection(ctx, t.tx, shopID, inspectionID)
}

func (t *workflowTx) ListItems(ctx context.Context, shopID, inspectionID string) ([]*secondary.ItemRecord, error) {
	return listItems(ctx, t.tx, shopID, inspectionID)
}

func (t *workflowTx) CustomerHasContact(ctx context.Context, shopID, customerID string) (bool, error) {
	return customerHasContact(ctx, t.tx, shopID, customerID)
}

// ApplyTransition writes the state change guarded by the expected
// version. Zero rows affected means a concurrent writer got there first.
func (t *workflowTx) ApplyTransition(ctx context.Context, up *secondary.TransitionUpdate) error {
	var startedAt, completedAt sql.NullTime
	var durationSeconds sql.NullInt64
	if up.StartedAt != nil {
		startedAt = sql.NullTime{Time: *up.StartedAt, Valid: true}
	}
	if up.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *up.CompletedAt, Valid: true}
	}
	if up.Duration != nil {
		durationSeconds = sql.NullInt64{Int64: int64(up.Duration.Seconds()), Valid: true}
	}

	result, err := t.tx.ExecContext(ctx,
		`UPDATE inspections
		 SET workflow_state = ?,
		     version = version + 1,
		     started_at = COALESCE(?, started_at),
		     completed_at = COALESCE(?, completed_at),
		     inspection_duration_seconds = COALESCE(?, inspection_duration_seconds),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND shop_id = ? AND version = ?`,
		up.ToState, startedAt, completedAt, durationSeconds,
		up.InspectionID, up.ShopID, up.FromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update inspection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("inspection %s changed concurrently (expected version %d)", up.InspectionID, up.FromVersion)
	}
	return nil
}

func (t *workflowTx) InsertHistory(ctx context.Context, entry *secondary.HistoryRecord) error {
	var reason sql.NullString
	if entry.ChangeReason != "" {
		reason = sql.NullString{String: entry.ChangeReason, Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO inspection_state_history
		 (id, inspection_id, shop_id, from_state, to_state, changed_by, changed_by_role, forced, changed_at, change_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.InspectionID, entry.ShopID, entry.FromState, entry.ToState,
		entry.ChangedBy, entry.ChangedByRole, entry.Forced, entry.ChangedAt, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}
