package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSession returns the value stored under key, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("session %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get session %q: %w", key, err)
	}
	return value, nil
}

// SetSession stores value under key, replacing any previous value.
func (s *Store) SetSession(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set session %q: %w", key, err)
	}
	return nil
}

// DeleteSession removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSession(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session %q: %w", key, err)
	}
	return nil
}

// ClearSession removes every session key.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
