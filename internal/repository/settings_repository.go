package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository stores per-business text overrides (welcome message,
// unavailable notice, and the like).
type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting returns "" for missing keys; absence is not an error.
func (r *SettingsRepository) GetSetting(ctx context.Context, businessID int64, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `
		SELECT value FROM business_settings WHERE business_id = $1 AND key = $2
	`, businessID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) SetSetting(ctx context.Context, businessID int64, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO business_settings (business_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (business_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, businessID, key, value)
	return err
}
