package db

import "fmt"

// SchemaSQL is the complete schema for fresh garage installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests
// use it via GetSchemaSQL() so repository code referencing a column that
// does not exist here fails immediately with "no such column" at test
// time, not in production.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Shops (tenants; every other row is owned by exactly one shop)
CREATE TABLE IF NOT EXISTS shops (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Users (technicians, managers, admins of a shop)
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	display_name TEXT NOT NULL,
	role TEXT NOT NULL CHECK(role IN ('technician', 'manager', 'admin')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (shop_id) REFERENCES shops(id)
);

-- Customers (contact lookup for the sent_to_customer gate)
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (shop_id) REFERENCES shops(id)
);

-- Inspections (the contended row; mutated only by the workflow executor)
CREATE TABLE IF NOT EXISTS inspections (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	technician_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	workflow_state TEXT NOT NULL CHECK(workflow_state IN ('draft', 'in_progress', 'pending_review', 'approved', 'rejected', 'sent_to_customer', 'completed')) DEFAULT 'draft',
	version INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME,
	completed_at DATETIME,
	inspection_duration_seconds INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (shop_id) REFERENCES shops(id),
	FOREIGN KEY (technician_id) REFERENCES users(id),
	FOREIGN KEY (customer_id) REFERENCES customers(id)
);

CREATE INDEX IF NOT EXISTS idx_inspections_shop_state ON inspections(shop_id, workflow_state);

-- Inspection items (read-only input to the validator; edited upstream)
CREATE TABLE IF NOT EXISTS inspection_items (
	id TEXT PRIMARY KEY,
	inspection_id TEXT NOT NULL,
	name TEXT NOT NULL,
	condition_status TEXT CHECK(condition_status IN ('good', 'fair', 'poor', 'needs_attention')),
	is_critical INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (inspection_id) REFERENCES inspections(id)
);

CREATE INDEX IF NOT EXISTS idx_items_inspection ON inspection_items(inspection_id);

-- State history (append-only audit trail; never updated or deleted)
CREATE TABLE IF NOT EXISTS inspection_state_history (
	id TEXT PRIMARY KEY,
	inspection_id TEXT NOT NULL,
	shop_id TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	changed_by TEXT NOT NULL,
	changed_by_role TEXT NOT NULL,
	forced INTEGER NOT NULL DEFAULT 0,
	changed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	change_reason TEXT,
	FOREIGN KEY (inspection_id) REFERENCES inspections(id),
	FOREIGN KEY (shop_id) REFERENCES shops(id)
);

CREATE INDEX IF NOT EXISTS idx_history_inspection ON inspection_state_history(inspection_id, changed_at);
CREATE INDEX IF NOT EXISTS idx_history_shop_time ON inspection_state_history(shop_id, changed_at);
`

// InitSchema creates all tables for a fresh install, or runs pending
// migrations against an existing database.
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	// Fresh install detection: no inspections table means nothing to
	// migrate, apply the full schema and mark every migration applied.
	var name string
	err = database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='inspections'").Scan(&name)
	if err != nil {
		if _, err := database.Exec(SchemaSQL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if _, err := database.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
