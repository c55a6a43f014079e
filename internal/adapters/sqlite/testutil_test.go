// Package sqlite_test contains integration tests for the SQLite store.
//
// This file is the single point where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests always run
// against the authoritative schema; do not hardcode CREATE TABLE
// statements in test files.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/garage/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// One connection keeps every statement on the same in-memory
	// database and serializes transactions the way the file DB does.
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedShop inserts a test shop and returns its ID.
func seedShop(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "SHOP-001"
	}
	if _, err := db.Exec("INSERT INTO shops (id, name) VALUES (?, ?)", id, "Test Shop"); err != nil {
		t.Fatalf("failed to seed shop: %v", err)
	}
	return id
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, id, shopID, name, role string) string {
	t.Helper()
	if id == "" {
		id = "USER-001"
	}
	if shopID == "" {
		shopID = "SHOP-001"
	}
	if name == "" {
		name = "Test User"
	}
	if role == "" {
		role = "technician"
	}
	if _, err := db.Exec(
		"INSERT INTO users (id, shop_id, display_name, role) VALUES (?, ?, ?, ?)",
		id, shopID, name, role,
	); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedCustomer inserts a test customer and returns its ID.
func seedCustomer(t *testing.T, db *sql.DB, id, shopID, phone string) string {
	t.Helper()
	if id == "" {
		id = "CUST-001"
	}
	if shopID == "" {
		shopID = "SHOP-001"
	}
	var phoneVal any
	if phone != "" {
		phoneVal = phone
	}
	if _, err := db.Exec(
		"INSERT INTO customers (id, shop_id, name, phone) VALUES (?, ?, ?, ?)",
		id, shopID, "Test Customer", phoneVal,
	); err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return id
}

// seedInspection inserts a test inspection and returns its ID.
func seedInspection(t *testing.T, db *sql.DB, id, shopID, state string, version int) string {
	t.Helper()
	if id == "" {
		id = "INSP-001"
	}
	if shopID == "" {
		shopID = "SHOP-001"
	}
	if state == "" {
		state = "draft"
	}
	if _, err := db.Exec(
		"INSERT INTO inspections (id, shop_id, technician_id, customer_id, workflow_state, version) VALUES (?, ?, 'USER-001', 'CUST-001', ?, ?)",
		id, shopID, state, version,
	); err != nil {
		t.Fatalf("failed to seed inspection: %v", err)
	}
	return id
}

// seedItem inserts a test inspection item and returns its ID.
func seedItem(t *testing.T, db *sql.DB, id, inspectionID, condition string, critical bool) string {
	t.Helper()
	if id == "" {
		id = "ITEM-001"
	}
	if inspectionID == "" {
		inspectionID = "INSP-001"
	}
	var conditionVal any
	if condition != "" {
		conditionVal = condition
	}
	if _, err := db.Exec(
		"INSERT INTO inspection_items (id, inspection_id, name, condition_status, is_critical) VALUES (?, ?, 'Test Item', ?, ?)",
		id, inspectionID, conditionVal, critical,
	); err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}
	return id
}
