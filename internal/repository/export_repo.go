package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type ExportRepo struct {
	pool *pgxpool.Pool
}

func NewExportRepo(pool *pgxpool.Pool) *ExportRepo {
	return &ExportRepo{pool: pool}
}

func (r *ExportRepo) Create(ctx context.Context, j *models.ExportJob) error {
	j.ID = uuid.New()
	j.Status = "pending"

	return r.pool.QueryRow(ctx, `
		INSERT INTO export_jobs (id, user_id, type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		j.ID, j.UserID, j.Type, j.Status,
	).Scan(&j.CreatedAt)
}

func (r *ExportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error) {
	j := &models.ExportJob{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, status, file_path, error_message, created_at, completed_at
		FROM export_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.UserID, &j.Type, &j.Status, &j.FilePath, &j.ErrorMessage,
		&j.CreatedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *ExportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status == "completed" || status == "failed" {
		_, err := r.pool.Exec(ctx,
			"UPDATE export_jobs SET status = $1, completed_at = $2 WHERE id = $3",
			status, time.Now(), id)
		return err
	}
	_, err := r.pool.Exec(ctx, "UPDATE export_jobs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *ExportRepo) MarkCompleted(ctx context.Context, id uuid.UUID, filePath string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_jobs SET status = 'completed', file_path = $1, completed_at = $2
		WHERE id = $3`,
		filePath, time.Now(), id)
	return err
}

func (r *ExportRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_jobs SET status = 'failed', error_message = $1, completed_at = $2
		WHERE id = $3`,
		message, time.Now(), id)
	return err
}
