package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type ApplicantRepo struct {
	pool *pgxpool.Pool
}

func NewApplicantRepo(pool *pgxpool.Pool) *ApplicantRepo {
	return &ApplicantRepo{pool: pool}
}

const applicantColumns = `id, last_name, first_name, middle_name, medbook_number,
	snils_number, passport_number, birth_date, registration_address, residence_address,
	phone_number, email, contingent_id, work_field_id, applicant_type_id,
	attestation_type_id, created_at`

func (r *ApplicantRepo) scanApplicant(row interface{ Scan(dest ...any) error }) (*models.Applicant, error) {
	a := &models.Applicant{}
	err := row.Scan(
		&a.ID, &a.LastName, &a.FirstName, &a.MiddleName, &a.MedbookNumber,
		&a.SnilsNumber, &a.PassportNumber, &a.BirthDate, &a.RegistrationAddress,
		&a.ResidenceAddress, &a.PhoneNumber, &a.Email, &a.ContingentID,
		&a.WorkFieldID, &a.ApplicantTypeID, &a.AttestationTypeID, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ApplicantRepo) GetByID(ctx context.Context, id int64) (*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE id = $1`
	return r.scanApplicant(r.pool.QueryRow(ctx, query, id))
}

func (r *ApplicantRepo) Create(ctx context.Context, a *models.Applicant) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO applicants (last_name, first_name, middle_name, medbook_number,
			snils_number, passport_number, birth_date, registration_address,
			residence_address, phone_number, email, contingent_id, work_field_id,
			applicant_type_id, attestation_type_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`,
		a.LastName, a.FirstName, a.MiddleName, a.MedbookNumber, a.SnilsNumber,
		a.PassportNumber, a.BirthDate, a.RegistrationAddress, a.ResidenceAddress,
		a.PhoneNumber, a.Email, a.ContingentID, a.WorkFieldID, a.ApplicantTypeID,
		a.AttestationTypeID,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *ApplicantRepo) Update(ctx context.Context, a *models.Applicant) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE applicants SET last_name = $1, first_name = $2, middle_name = $3,
			medbook_number = $4, snils_number = $5, passport_number = $6, birth_date = $7,
			registration_address = $8, residence_address = $9, phone_number = $10,
			email = $11, contingent_id = $12, work_field_id = $13,
			applicant_type_id = $14, attestation_type_id = $15
		WHERE id = $16`,
		a.LastName, a.FirstName, a.MiddleName, a.MedbookNumber, a.SnilsNumber,
		a.PassportNumber, a.BirthDate, a.RegistrationAddress, a.ResidenceAddress,
		a.PhoneNumber, a.Email, a.ContingentID, a.WorkFieldID, a.ApplicantTypeID,
		a.AttestationTypeID, a.ID,
	)
	return err
}

func (r *ApplicantRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM applicants WHERE id = $1", id)
	return err
}

// Search filters applicants by the non-empty fields of the search form.
// Last name matches by prefix, document numbers exactly.
func (r *ApplicantRepo) Search(ctx context.Context, s models.ApplicantSearch) ([]*models.Applicant, error) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if s.LastName != "" {
		args = append(args, s.LastName+"%")
		conds = append(conds, fmt.Sprintf("last_name ILIKE $%d", len(args)))
	}
	if s.MedbookNumber != "" {
		args = append(args, s.MedbookNumber)
		conds = append(conds, fmt.Sprintf("medbook_number = $%d", len(args)))
	}
	if s.SnilsNumber != "" {
		args = append(args, s.SnilsNumber)
		conds = append(conds, fmt.Sprintf("snils_number = $%d", len(args)))
	}
	if s.PassportNumber != "" {
		args = append(args, s.PassportNumber)
		conds = append(conds, fmt.Sprintf("passport_number = $%d", len(args)))
	}

	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY last_name, first_name LIMIT 200`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applicants := make([]*models.Applicant, 0)
	for rows.Next() {
		a, err := r.scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		applicants = append(applicants, a)
	}
	return applicants, rows.Err()
}

// ListAll returns every applicant, used by the export worker.
func (r *ApplicantRepo) ListAll(ctx context.Context) ([]*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applicants := make([]*models.Applicant, 0)
	for rows.Next() {
		a, err := r.scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		applicants = append(applicants, a)
	}
	return applicants, rows.Err()
}
