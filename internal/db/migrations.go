package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration. Up receives the open
// transaction so its DDL, and the schema_version row recording it, commit
// or roll back together. Running DDL through the pool instead would use a
// second connection and deadlock against the immediate write lock the
// transaction already holds.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_forced_flag_to_state_history",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_customer_email_column",
		Up:      migrationV2,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}
	return applyMigrations(db)
}

// applyMigrations runs every pending migration against the given database.
func applyMigrations(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 adds the forced flag that separates override transitions
// from normal ones in the audit trail.
func migrationV1(tx *sql.Tx) error {
	var count int
	err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('inspection_state_history') WHERE name = 'forced'`).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = tx.Exec(`ALTER TABLE inspection_state_history ADD COLUMN forced INTEGER NOT NULL DEFAULT 0`)
	return err
}

// migrationV2 adds the customer email column used by report delivery
// outside the engine.
func migrationV2(tx *sql.Tx) error {
	var count int
	err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('customers') WHERE name = 'email'`).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = tx.Exec(`ALTER TABLE customers ADD COLUMN email TEXT`)
	return err
}
