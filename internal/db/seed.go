package db

import (
	"database/sql"
	"fmt"
)

// SeedFixtures populates the database with development fixtures: one
// shop, its staff, a customer, and a draft inspection with items.
func SeedFixtures(database *sql.DB) error {
	if _, err := database.Exec(
		"INSERT INTO shops (id, name) VALUES (?, ?)",
		"SHOP-001", "Eastside Auto Care",
	); err != nil {
		return fmt.Errorf("seed shops: %w", err)
	}

	users := []struct{ id, name, role string }{
		{"USER-001", "Marco Dalla", "technician"},
		{"USER-002", "Priya Nair", "manager"},
		{"USER-003", "Alex Fontaine", "admin"},
	}
	for _, u := range users {
		if _, err := database.Exec(
			"INSERT INTO users (id, shop_id, display_name, role) VALUES (?, ?, ?, ?)",
			u.id, "SHOP-001", u.name, u.role,
		); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	if _, err := database.Exec(
		"INSERT INTO customers (id, shop_id, name, phone, email) VALUES (?, ?, ?, ?, ?)",
		"CUST-001", "SHOP-001", "Jordan Reyes", "+1-555-0163", "jordan.reyes@example.com",
	); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}

	if _, err := database.Exec(
		"INSERT INTO inspections (id, shop_id, technician_id, customer_id, workflow_state, version) VALUES (?, ?, ?, ?, 'draft', 0)",
		"INSP-001", "SHOP-001", "USER-001", "CUST-001",
	); err != nil {
		return fmt.Errorf("seed inspections: %w", err)
	}

	items := []struct {
		id, name, condition string
		critical            bool
	}{
		{"ITEM-001", "Front brake pads", "poor", true},
		{"ITEM-002", "Tire tread depth", "fair", false},
		{"ITEM-003", "Cabin air filter", "", false},
	}
	for _, it := range items {
		var condition sql.NullString
		if it.condition != "" {
			condition = sql.NullString{String: it.condition, Valid: true}
		}
		if _, err := database.Exec(
			"INSERT INTO inspection_items (id, inspection_id, name, condition_status, is_critical) VALUES (?, ?, ?, ?, ?)",
			it.id, "INSP-001", it.name, condition, it.critical,
		); err != nil {
			return fmt.Errorf("seed inspection items: %w", err)
		}
	}

	return nil
}
