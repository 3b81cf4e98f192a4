package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menstrual_tracker_daemon/internal/domain/settings"
)

// SQLSettingsRepository persists the single settings row seeded by the
// initial migration.
type SQLSettingsRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLSettingsRepository(db *sql.DB, dialect Dialect) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db, dialect: dialect}
}

func (r *SQLSettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	s := &settings.Settings{}
	err := r.db.QueryRowContext(ctx, `SELECT pregnancy_mode FROM settings WHERE id = 1`).Scan(&s.PregnancyMode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &settings.Settings{}, nil // Defaults until the first write
		}
		return nil, fmt.Errorf("error loading settings: %w", err)
	}
	return s, nil
}

func (r *SQLSettingsRepository) SetPregnancyMode(ctx context.Context, enabled bool) error {
	query := bindDialect(r.dialect, `INSERT INTO settings (id, pregnancy_mode)
        VALUES (1, ?)
        ON CONFLICT (id) DO UPDATE SET pregnancy_mode = excluded.pregnancy_mode`)
	if _, err := r.db.ExecContext(ctx, query, enabled); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
