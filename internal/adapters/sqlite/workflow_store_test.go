package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/garage/internal/adapters/sqlite"
	"github.com/example/garage/internal/ports/secondary"
)

func TestGetInspection(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "+1-555-0101")
	seedInspection(t, database, "INSP-001", "SHOP-001", "pending_review", 3)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	rec, err := store.GetInspection(ctx, "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("GetInspection() error = %v", err)
	}
	if rec.State != "pending_review" || rec.Version != 3 {
		t.Errorf("GetInspection() = %s v%d, want pending_review v3", rec.State, rec.Version)
	}
	if rec.StartedAt != nil || rec.Duration != nil {
		t.Errorf("unset fields scanned as non-nil: %+v", rec)
	}

	// Shop scoping: the same ID under another shop is not found.
	if _, err := store.GetInspection(ctx, "SHOP-002", "INSP-001"); err == nil {
		t.Error("GetInspection() crossed shop scope")
	}
}

func TestListItems(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "in_progress", 1)
	seedItem(t, database, "ITEM-001", "INSP-001", "good", false)
	seedItem(t, database, "ITEM-002", "INSP-001", "", true)
	store := sqlite.NewWorkflowStore(database)

	items, err := store.ListItems(context.Background(), "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListItems() = %d items, want 2", len(items))
	}
	if items[0].ConditionStatus == nil || *items[0].ConditionStatus != "good" {
		t.Errorf("item 1 condition = %v, want good", items[0].ConditionStatus)
	}
	if items[1].ConditionStatus != nil {
		t.Errorf("item 2 condition = %v, want nil", items[1].ConditionStatus)
	}
	if !items[1].IsCritical {
		t.Error("item 2 critical flag lost")
	}

	// Scoped by shop through the parent inspection.
	items, err = store.ListItems(context.Background(), "SHOP-002", "INSP-001")
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("ListItems() crossed shop scope: %d items", len(items))
	}
}

func TestCustomerHasContact(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedCustomer(t, database, "CUST-001", "SHOP-001", "+1-555-0101")
	seedCustomer(t, database, "CUST-002", "SHOP-001", "")
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	tests := []struct {
		name       string
		customerID string
		want       bool
	}{
		{name: "customer with phone", customerID: "CUST-001", want: true},
		{name: "customer without phone", customerID: "CUST-002", want: false},
		{name: "unknown customer", customerID: "CUST-404", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.CustomerHasContact(ctx, "SHOP-001", tt.customerID)
			if err != nil {
				t.Fatalf("CustomerHasContact() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CustomerHasContact(%s) = %v, want %v", tt.customerID, got, tt.want)
			}
		})
	}
}

func TestApplyTransition_VersionGuard(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "draft", 0)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	started := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	err := store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
		return tx.ApplyTransition(ctx, &secondary.TransitionUpdate{
			InspectionID: "INSP-001",
			ShopID:       "SHOP-001",
			FromVersion:  0,
			ToState:      "in_progress",
			StartedAt:    &started,
		})
	})
	if err != nil {
		t.Fatalf("InTransaction() error = %v", err)
	}

	rec, err := store.GetInspection(ctx, "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("GetInspection() error = %v", err)
	}
	if rec.State != "in_progress" || rec.Version != 1 {
		t.Errorf("record = %s v%d, want in_progress v1", rec.State, rec.Version)
	}
	if rec.StartedAt == nil || !rec.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", rec.StartedAt, started)
	}

	// A stale FromVersion matches no row and fails the transaction.
	err = store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
		return tx.ApplyTransition(ctx, &secondary.TransitionUpdate{
			InspectionID: "INSP-001",
			ShopID:       "SHOP-001",
			FromVersion:  0,
			ToState:      "pending_review",
		})
	})
	if err == nil {
		t.Fatal("ApplyTransition() with stale version succeeded")
	}
	rec, _ = store.GetInspection(ctx, "SHOP-001", "INSP-001")
	if rec.State != "in_progress" || rec.Version != 1 {
		t.Errorf("record changed by failed CAS: %s v%d", rec.State, rec.Version)
	}
}

func TestApplyTransition_PreservesEarlierStamps(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "draft", 0)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	started := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	duration := 45 * time.Minute

	steps := []*secondary.TransitionUpdate{
		{InspectionID: "INSP-001", ShopID: "SHOP-001", FromVersion: 0, ToState: "in_progress", StartedAt: &started},
		{InspectionID: "INSP-001", ShopID: "SHOP-001", FromVersion: 1, ToState: "pending_review", Duration: &duration},
	}
	for _, up := range steps {
		if err := store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
			return tx.ApplyTransition(ctx, up)
		}); err != nil {
			t.Fatalf("ApplyTransition(%s) error = %v", up.ToState, err)
		}
	}

	rec, err := store.GetInspection(ctx, "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("GetInspection() error = %v", err)
	}
	if rec.StartedAt == nil || !rec.StartedAt.Equal(started) {
		t.Errorf("started_at = %v after second write, want %v preserved", rec.StartedAt, started)
	}
	if rec.Duration == nil || *rec.Duration != duration {
		t.Errorf("duration = %v, want %v", rec.Duration, duration)
	}
}

func TestInTransaction_RollsBackOnError(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "draft", 0)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	boom := errors.New("validation failed downstream")
	err := store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
		if err := tx.ApplyTransition(ctx, &secondary.TransitionUpdate{
			InspectionID: "INSP-001",
			ShopID:       "SHOP-001",
			FromVersion:  0,
			ToState:      "in_progress",
		}); err != nil {
			return err
		}
		if err := tx.InsertHistory(ctx, &secondary.HistoryRecord{
			ID:            "HIST-001",
			InspectionID:  "INSP-001",
			ShopID:        "SHOP-001",
			FromState:     "draft",
			ToState:       "in_progress",
			ChangedBy:     "USER-001",
			ChangedByRole: "technician",
			ChangedAt:     time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTransaction() error = %v, want wrapped rollback cause", err)
	}

	// Neither write survived the rollback.
	rec, _ := store.GetInspection(ctx, "SHOP-001", "INSP-001")
	if rec.State != "draft" || rec.Version != 0 {
		t.Errorf("record = %s v%d after rollback, want draft v0", rec.State, rec.Version)
	}
	history, err := store.ListHistory(ctx, "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history rows = %d after rollback, want 0", len(history))
	}
}

func TestListHistory_OrderAndDisplayNames(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "SHOP-001", "Marco Dalla", "technician")
	seedUser(t, database, "USER-002", "SHOP-001", "Priya Nair", "manager")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "pending_review", 2)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	base := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	entries := []*secondary.HistoryRecord{
		{ID: "H1", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "draft", ToState: "in_progress", ChangedBy: "USER-001", ChangedByRole: "technician", ChangedAt: base},
		{ID: "H2", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "in_progress", ToState: "pending_review", ChangedBy: "USER-001", ChangedByRole: "technician", ChangedAt: base.Add(time.Hour)},
		{ID: "H3", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "pending_review", ToState: "rejected", ChangedBy: "USER-002", ChangedByRole: "manager", ChangedAt: base.Add(2 * time.Hour), ChangeReason: "photos missing", Forced: false},
	}
	for _, e := range entries {
		entry := e
		if err := store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
			return tx.InsertHistory(ctx, entry)
		}); err != nil {
			t.Fatalf("InsertHistory(%s) error = %v", entry.ID, err)
		}
	}

	history, err := store.ListHistory(ctx, "SHOP-001", "INSP-001")
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("ListHistory() = %d rows, want 3", len(history))
	}
	for i, wantID := range []string{"H1", "H2", "H3"} {
		if history[i].ID != wantID {
			t.Errorf("history[%d].ID = %s, want %s (oldest first)", i, history[i].ID, wantID)
		}
	}
	if history[0].ChangedByName != "Marco Dalla" {
		t.Errorf("history[0] display name = %q, want Marco Dalla", history[0].ChangedByName)
	}
	if history[2].ChangedByName != "Priya Nair" || history[2].ChangeReason != "photos missing" {
		t.Errorf("history[2] = %+v, want manager entry with reason", history[2])
	}
}

func TestGetStatistics(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedShop(t, database, "SHOP-002")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "completed", 6)
	seedInspection(t, database, "INSP-002", "SHOP-001", "in_progress", 1)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	// Give INSP-001 a completion duration inside the window.
	if _, err := database.Exec(
		"UPDATE inspections SET inspection_duration_seconds = 3600, completed_at = datetime('now', '-1 day') WHERE id = 'INSP-001'",
	); err != nil {
		t.Fatalf("failed to set duration: %v", err)
	}

	now := time.Now().UTC()
	entries := []*secondary.HistoryRecord{
		{ID: "H1", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "draft", ToState: "in_progress", ChangedBy: "USER-001", ChangedByRole: "technician", ChangedAt: now.Add(-48 * time.Hour)},
		{ID: "H2", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "in_progress", ToState: "pending_review", ChangedBy: "USER-001", ChangedByRole: "technician", ChangedAt: now.Add(-36 * time.Hour)},
		{ID: "H3", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "pending_review", ToState: "approved", ChangedBy: "USER-001", ChangedByRole: "manager", ChangedAt: now.Add(-30 * time.Hour)},
		{ID: "H4", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "sent_to_customer", ToState: "completed", ChangedBy: "USER-001", ChangedByRole: "manager", ChangedAt: now.Add(-24 * time.Hour)},
		{ID: "H5", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "completed", ToState: "in_progress", ChangedBy: "USER-001", ChangedByRole: "admin", ChangedAt: now.Add(-1 * time.Hour), Forced: true},
		// Outside the window.
		{ID: "H6", InspectionID: "INSP-001", ShopID: "SHOP-001", FromState: "draft", ToState: "in_progress", ChangedBy: "USER-001", ChangedByRole: "technician", ChangedAt: now.Add(-40 * 24 * time.Hour)},
	}
	for _, e := range entries {
		entry := e
		if err := store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
			return tx.InsertHistory(ctx, entry)
		}); err != nil {
			t.Fatalf("InsertHistory(%s) error = %v", entry.ID, err)
		}
	}

	stats, err := store.GetStatistics(ctx, "SHOP-001", 30)
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if stats.TotalTransitions != 5 {
		t.Errorf("TotalTransitions = %d, want 5 (H6 outside window)", stats.TotalTransitions)
	}
	if stats.Starts != 1 || stats.Submissions != 1 || stats.Approvals != 1 || stats.Completions != 1 {
		t.Errorf("counts = %+v, want one start/submission/approval/completion", stats)
	}
	if stats.ForcedTransitions != 1 {
		t.Errorf("ForcedTransitions = %d, want 1", stats.ForcedTransitions)
	}
	if stats.AvgCompletionDuration != time.Hour {
		t.Errorf("AvgCompletionDuration = %v, want 1h", stats.AvgCompletionDuration)
	}
	if stats.ByState["completed"] != 1 || stats.ByState["in_progress"] != 1 {
		t.Errorf("ByState = %v, want completed:1 in_progress:1", stats.ByState)
	}

	// Other shops see none of it.
	other, err := store.GetStatistics(ctx, "SHOP-002", 30)
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if other.TotalTransitions != 0 {
		t.Errorf("SHOP-002 TotalTransitions = %d, want 0", other.TotalTransitions)
	}
}

func TestListByState(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	seedInspection(t, database, "INSP-001", "SHOP-001", "draft", 0)
	seedInspection(t, database, "INSP-002", "SHOP-001", "pending_review", 2)
	seedInspection(t, database, "INSP-003", "SHOP-001", "approved", 3)
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	records, err := store.ListByState(ctx, "SHOP-001", []string{"pending_review", "approved"}, 0)
	if err != nil {
		t.Fatalf("ListByState() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListByState() = %d records, want 2", len(records))
	}

	records, err = store.ListByState(ctx, "SHOP-001", []string{"pending_review", "approved"}, 1)
	if err != nil {
		t.Fatalf("ListByState() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ListByState() with limit 1 = %d records", len(records))
	}

	records, err = store.ListByState(ctx, "SHOP-001", nil, 0)
	if err != nil {
		t.Fatalf("ListByState() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListByState() with no states = %d records, want 0", len(records))
	}
}

func TestGetActor(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-003", "SHOP-001", "Alex Fontaine", "admin")
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	actor, err := store.GetActor(ctx, "SHOP-001", "USER-003")
	if err != nil {
		t.Fatalf("GetActor() error = %v", err)
	}
	if actor.Role != "admin" || actor.DisplayName != "Alex Fontaine" {
		t.Errorf("GetActor() = %+v, want admin Alex Fontaine", actor)
	}

	if _, err := store.GetActor(ctx, "SHOP-002", "USER-003"); err == nil {
		t.Error("GetActor() crossed shop scope")
	}
}

func TestCreateInspectionAndItem(t *testing.T) {
	database := setupTestDB(t)
	seedShop(t, database, "SHOP-001")
	seedUser(t, database, "USER-001", "", "", "")
	seedCustomer(t, database, "CUST-001", "", "")
	store := sqlite.NewWorkflowStore(database)
	ctx := context.Background()

	err := store.CreateInspection(ctx, &secondary.InspectionRecord{
		ID:           "INSP-NEW",
		ShopID:       "SHOP-001",
		TechnicianID: "USER-001",
		CustomerID:   "CUST-001",
		State:        "draft",
		Version:      0,
	})
	if err != nil {
		t.Fatalf("CreateInspection() error = %v", err)
	}

	condition := "good"
	err = store.CreateItem(ctx, "SHOP-001", &secondary.ItemRecord{
		ID:              "ITEM-NEW",
		InspectionID:    "INSP-NEW",
		Name:            "Wiper blades",
		ConditionStatus: &condition,
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	// Creating an item under the wrong shop is refused.
	err = store.CreateItem(ctx, "SHOP-002", &secondary.ItemRecord{
		ID:           "ITEM-BAD",
		InspectionID: "INSP-NEW",
		Name:         "Horn",
	})
	if err == nil {
		t.Error("CreateItem() crossed shop scope")
	}

	items, err := store.ListItems(ctx, "SHOP-001", "INSP-NEW")
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 || items[0].Name != "Wiper blades" {
		t.Errorf("ListItems() = %+v, want the one created item", items)
	}
}
