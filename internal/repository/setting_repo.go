package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type SettingRepo struct {
	pool *pgxpool.Pool
}

func NewSettingRepo(pool *pgxpool.Pool) *SettingRepo {
	return &SettingRepo{pool: pool}
}

const settingColumns = `id, name, page_lock_seconds, activity_timeout_seconds,
	max_admins_number, max_moders_number, activity_period_counter,
	activity_counter_max_threshold, is_activated_now, created_at`

func (r *SettingRepo) scanSetting(row interface{ Scan(dest ...any) error }) (*models.AccessSetting, error) {
	s := &models.AccessSetting{}
	err := row.Scan(
		&s.ID, &s.Name, &s.PageLockSeconds, &s.ActivityTimeoutSeconds,
		&s.MaxAdminsNumber, &s.MaxModersNumber, &s.ActivityPeriodCounter,
		&s.ActivityCounterMaxThreshold, &s.IsActivatedNow, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActive returns the single activated access policy record. pgx.ErrNoRows
// when none is activated; callers fall back to the env defaults.
func (r *SettingRepo) GetActive(ctx context.Context) (*models.AccessSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM access_settings WHERE is_activated_now = TRUE`
	return r.scanSetting(r.pool.QueryRow(ctx, query))
}

func (r *SettingRepo) GetByID(ctx context.Context, id int64) (*models.AccessSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM access_settings WHERE id = $1`
	return r.scanSetting(r.pool.QueryRow(ctx, query, id))
}

func (r *SettingRepo) List(ctx context.Context) ([]*models.AccessSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM access_settings ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*models.AccessSetting, 0)
	for rows.Next() {
		s, err := r.scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Create inserts a new settings record. New records are never activated on
// creation; activation is an explicit separate step.
func (r *SettingRepo) Create(ctx context.Context, s *models.AccessSetting) error {
	s.IsActivatedNow = false
	return r.pool.QueryRow(ctx, `
		INSERT INTO access_settings (name, page_lock_seconds, activity_timeout_seconds,
			max_admins_number, max_moders_number, activity_period_counter,
			activity_counter_max_threshold, is_activated_now)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING id, created_at`,
		s.Name, s.PageLockSeconds, s.ActivityTimeoutSeconds,
		s.MaxAdminsNumber, s.MaxModersNumber, s.ActivityPeriodCounter,
		s.ActivityCounterMaxThreshold,
	).Scan(&s.ID, &s.CreatedAt)
}

// Activate marks the given record active and every other record inactive,
// in a single transaction, so at most one row is ever activated.
func (r *SettingRepo) Activate(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE access_settings SET is_activated_now = FALSE WHERE is_activated_now = TRUE"); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		"UPDATE access_settings SET is_activated_now = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *SettingRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM access_settings WHERE id = $1", id)
	return err
}

// FirstID returns the lowest settings id, used to re-activate a fallback
// record after the active one is deleted. pgx.ErrNoRows when the table is
// empty.
func (r *SettingRepo) FirstID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, "SELECT id FROM access_settings ORDER BY id LIMIT 1").Scan(&id)
	return id, err
}
