package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

const defaultConfigKey = "default_config"

type SettingsRepo struct {
	db *DB
}

var _ SettingsRepository = (*SettingsRepo)(nil)

func NewSettingsRepository(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetDefaultConfig returns nil, nil when no default has been stored yet.
func (r *SettingsRepo) GetDefaultConfig() (*DefaultConfig, error) {
	var raw []byte
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = $1`, defaultConfigKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default config: %w", err)
	}

	var config DefaultConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to decode default config: %w", err)
	}
	return &config, nil
}

func (r *SettingsRepo) PutDefaultConfig(config DefaultConfig) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, defaultConfigKey, raw)
	if err != nil {
		return fmt.Errorf("failed to store default config: %w", err)
	}
	return nil
}
