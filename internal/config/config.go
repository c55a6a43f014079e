package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the flat garage configuration: who is acting, in
// which role, for which shop. The engine itself never reads this; the
// CLI uses it to fill in explicit request parameters.
type Config struct {
	Version string `json:"version"`
	ShopID  string `json:"shop_id"`
	ActorID string `json:"actor_id"`
	Role    string `json:"role"` // "technician", "manager", or "admin"
}

// LoadConfig reads .garage/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".garage", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	garageDir := filepath.Join(dir, ".garage")
	if err := os.MkdirAll(garageDir, 0755); err != nil {
		return fmt.Errorf("failed to create .garage dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(garageDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
