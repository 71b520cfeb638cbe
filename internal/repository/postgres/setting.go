package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Bbachelard/Option/pkg/database"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// SettingRepository implements the key/value settings store using PostgreSQL.
type SettingRepository struct {
	pool database.DBTX
}

// NewSettingRepository creates a new PostgreSQL-backed settings repository.
func NewSettingRepository(pool database.DBTX) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get returns the value stored under key.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("scan setting: %w", err)
	}

	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}
