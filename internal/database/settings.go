package database

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSetting returns the stored value for a key, or "" when unset. The
// settings table backs the reconciler's scan cursors and the platform wallet
// addresses, so "unset" is a normal state on first run.
func (s *Service) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, queryGetSetting, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, querySetSetting, key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}
