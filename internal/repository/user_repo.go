package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `u.id, u.last_name, u.first_name, u.middle_name, u.username, u.email,
	u.password_hash, u.phone, u.dept_id, u.status_code, u.is_logged_in, u.valid_ip,
	u.logged_in_at, u.last_activity_at, u.created_at,
	COALESCE(ARRAY(SELECT r.code FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = u.id ORDER BY r.code), '{}') AS roles`

func (r *UserRepo) scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.LastName, &u.FirstName, &u.MiddleName, &u.Username, &u.Email,
		&u.PasswordHash, &u.Phone, &u.DeptID, &u.StatusCode, &u.IsLoggedIn, &u.ValidIP,
		&u.LoggedInAt, &u.LastActivityAt, &u.CreatedAt, &u.Roles,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

// FindByValidIP returns the user currently bound to the given network
// origin, if any. Used by the single-workstation login policy.
func (r *UserRepo) FindByValidIP(ctx context.Context, ip string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.valid_ip = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, ip))
}

func (r *UserRepo) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (last_name, first_name, middle_name, username, email,
			password_hash, phone, dept_id, status_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		user.LastName, user.FirstName, user.MiddleName, user.Username, user.Email,
		user.PasswordHash, user.Phone, user.DeptID, user.StatusCode,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return err
	}

	for _, code := range user.Roles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE code = $2`,
			user.ID, code); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET last_name = $1, first_name = $2, middle_name = $3,
			email = $4, phone = $5, dept_id = $6, status_code = $7
		WHERE id = $8`,
		user.LastName, user.FirstName, user.MiddleName,
		user.Email, user.Phone, user.DeptID, user.StatusCode, user.ID,
	)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

// SaveLoginState commits the login/activity fields in one transaction. The
// access subsystem treats a failed commit as if the mutation never happened.
func (r *UserRepo) SaveLoginState(ctx context.Context, user *models.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE users SET is_logged_in = $1, valid_ip = $2, logged_in_at = $3, last_activity_at = $4
		WHERE id = $5`,
		user.IsLoggedIn, user.ValidIP, user.LoggedInAt, user.LastActivityAt, user.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ResetAllLoginState marks every user logged out and clears the IP bindings.
// Applied once at application startup.
func (r *UserRepo) ResetAllLoginState(ctx context.Context, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET is_logged_in = FALSE, valid_ip = '', last_activity_at = $1`,
		at,
	)
	return err
}

// CountWithRole returns the number of users holding the given role code.
// Used to enforce the configured admin/moderator caps.
func (r *UserRepo) CountWithRole(ctx context.Context, code string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT ur.user_id) FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id WHERE r.code = $1`,
		code,
	).Scan(&n)
	return n, err
}
