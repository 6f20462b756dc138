// ABOUTME: Key-value settings storage for retention defaults and the fingerprint secret
// ABOUTME: Simple upsert/get semantics over the settings table

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetSetting returns the value for a settings key.
// Returns ErrSettingNotFound if the key has no value.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value for a settings key, replacing any existing value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}

	s.logger.Debug("updated setting", "key", key)
	return nil
}
