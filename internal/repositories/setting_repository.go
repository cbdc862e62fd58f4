package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_backoffice/internal/models"
)

// SettingRepository defines the interface for key/value configuration rows.
type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	ListSettings(ctx context.Context) ([]models.Setting, error)
	UpsertSetting(ctx context.Context, exec SQLExecutor, setting *models.Setting) error
	DeleteSetting(ctx context.Context, exec SQLExecutor, key string) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func scanSetting(s scanner, st *models.Setting) error {
	var description sql.NullString
	if err := s.Scan(&st.Key, &st.Value, &description, &st.UpdatedAt); err != nil {
		return err
	}
	st.Description = stringPtr(description)
	return nil
}

func (r *settingRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting := &models.Setting{}
	err := scanSetting(r.db.QueryRowContext(ctx,
		`SELECT key, value, description, updated_at FROM configuracion WHERE key = $1`, key), setting)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting setting %s: %v", ErrDatabaseError, key, err)
	}
	return setting, nil
}

func (r *settingRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, description, updated_at FROM configuracion ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		if err := scanSetting(rows, &st); err != nil {
			return nil, fmt.Errorf("%w: scanning setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) UpsertSetting(ctx context.Context, exec SQLExecutor, setting *models.Setting) error {
	query := `INSERT INTO configuracion (key, value, description, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description,
	                                          updated_at = EXCLUDED.updated_at`

	setting.UpdatedAt = time.Now()
	if _, err := exec.ExecContext(ctx, query, setting.Key, setting.Value, nullString(setting.Description), setting.UpdatedAt); err != nil {
		return wrapWriteError(err, "upserting setting")
	}
	return nil
}

func (r *settingRepository) DeleteSetting(ctx context.Context, exec SQLExecutor, key string) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM configuracion WHERE key = $1`, key)
	if err != nil {
		return wrapWriteError(err, "deleting setting")
	}
	return expectOneRow(res, "deleting setting")
}
