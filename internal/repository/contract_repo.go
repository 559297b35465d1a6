package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type ContractRepo struct {
	pool *pgxpool.Pool
}

func NewContractRepo(pool *pgxpool.Pool) *ContractRepo {
	return &ContractRepo{pool: pool}
}

const contractColumns = `id, number, contract_date, name, expiration_date, is_extended,
	organization_id, additional_info`

func (r *ContractRepo) scanContract(row interface{ Scan(dest ...any) error }) (*models.Contract, error) {
	c := &models.Contract{}
	err := row.Scan(&c.ID, &c.Number, &c.ContractDate, &c.Name, &c.ExpirationDate,
		&c.IsExtended, &c.OrganizationID, &c.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContractRepo) GetByID(ctx context.Context, id int64) (*models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	return r.scanContract(r.pool.QueryRow(ctx, query, id))
}

// SearchByNumber matches contract numbers by substring.
func (r *ContractRepo) SearchByNumber(ctx context.Context, number string) ([]*models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE number ILIKE $1 ORDER BY contract_date DESC LIMIT 200`
	rows, err := r.pool.Query(ctx, query, "%"+number+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]*models.Contract, 0)
	for rows.Next() {
		c, err := r.scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (r *ContractRepo) ListAll(ctx context.Context) ([]*models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]*models.Contract, 0)
	for rows.Next() {
		c, err := r.scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (r *ContractRepo) Create(ctx context.Context, c *models.Contract) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contracts (number, contract_date, name, expiration_date, is_extended,
			organization_id, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.Number, c.ContractDate, c.Name, c.ExpirationDate, c.IsExtended,
		c.OrganizationID, c.AdditionalInfo,
	).Scan(&c.ID)
}

func (r *ContractRepo) Update(ctx context.Context, c *models.Contract) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contracts SET number = $1, contract_date = $2, name = $3,
			expiration_date = $4, is_extended = $5, organization_id = $6, additional_info = $7
		WHERE id = $8`,
		c.Number, c.ContractDate, c.Name, c.ExpirationDate, c.IsExtended,
		c.OrganizationID, c.AdditionalInfo, c.ID,
	)
	return err
}

func (r *ContractRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM contracts WHERE id = $1", id)
	return err
}
