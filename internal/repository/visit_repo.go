package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type VisitRepo struct {
	pool *pgxpool.Pool
}

func NewVisitRepo(pool *pgxpool.Pool) *VisitRepo {
	return &VisitRepo{pool: pool}
}

const visitColumns = `id, applicant_id, visit_date, contract_id, additional_info, created_at`

func (r *VisitRepo) scanVisit(row interface{ Scan(dest ...any) error }) (*models.Visit, error) {
	v := &models.Visit{}
	err := row.Scan(&v.ID, &v.ApplicantID, &v.VisitDate, &v.ContractID,
		&v.AdditionalInfo, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VisitRepo) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`
	return r.scanVisit(r.pool.QueryRow(ctx, query, id))
}

func (r *VisitRepo) ListByApplicant(ctx context.Context, applicantID int64) ([]*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE applicant_id = $1 ORDER BY visit_date DESC`
	rows, err := r.pool.Query(ctx, query, applicantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := make([]*models.Visit, 0)
	for rows.Next() {
		v, err := r.scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *VisitRepo) Create(ctx context.Context, v *models.Visit) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO visits (applicant_id, visit_date, contract_id, additional_info)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		v.ApplicantID, v.VisitDate, v.ContractID, v.AdditionalInfo,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *VisitRepo) Update(ctx context.Context, v *models.Visit) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visits SET visit_date = $1, contract_id = $2, additional_info = $3
		WHERE id = $4`,
		v.VisitDate, v.ContractID, v.AdditionalInfo, v.ID,
	)
	return err
}

func (r *VisitRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM visits WHERE id = $1", id)
	return err
}
