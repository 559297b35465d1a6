package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type OrganizationRepo struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) *OrganizationRepo {
	return &OrganizationRepo{pool: pool}
}

const organizationColumns = `id, name, inn, address, phone_number, email, is_active, additional_info`

func (r *OrganizationRepo) scanOrganization(row interface{ Scan(dest ...any) error }) (*models.Organization, error) {
	o := &models.Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.INN, &o.Address, &o.PhoneNumber, &o.Email,
		&o.IsActive, &o.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id int64) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	return r.scanOrganization(r.pool.QueryRow(ctx, query, id))
}

func (r *OrganizationRepo) ListAll(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		o, err := r.scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepo) Create(ctx context.Context, o *models.Organization) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, inn, address, phone_number, email, is_active, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.Name, o.INN, o.Address, o.PhoneNumber, o.Email, o.IsActive, o.AdditionalInfo,
	).Scan(&o.ID)
}

func (r *OrganizationRepo) Update(ctx context.Context, o *models.Organization) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE organizations SET name = $1, inn = $2, address = $3, phone_number = $4,
			email = $5, is_active = $6, additional_info = $7
		WHERE id = $8`,
		o.Name, o.INN, o.Address, o.PhoneNumber, o.Email, o.IsActive, o.AdditionalInfo, o.ID,
	)
	return err
}

func (r *OrganizationRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM organizations WHERE id = $1", id)
	return err
}
