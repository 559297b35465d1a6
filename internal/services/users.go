package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserService handles user administration, enforcing the privileged-role
// caps from the effective access policy.
type UserService struct {
	userRepo *repository.UserRepo
	policy   *PolicyService
}

func NewUserService(userRepo *repository.UserRepo, policy *PolicyService) *UserService {
	return &UserService{userRepo: userRepo, policy: policy}
}

func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	fieldErrors := make(map[string]string)

	if req.LastName == "" {
		fieldErrors["last_name"] = "Last name is required"
	}
	if req.FirstName == "" {
		fieldErrors["first_name"] = "First name is required"
	}
	if req.Username == "" {
		fieldErrors["username"] = "Username is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = "Password must be at least 8 characters"
	}
	if len(req.Roles) == 0 {
		fieldErrors["roles"] = "At least one role is required"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err == nil {
		return nil, &ConflictError{Message: "Username already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := s.checkRoleCaps(ctx, req.Roles); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		LastName:     req.LastName,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		DeptID:       req.DeptID,
		StatusCode:   "active",
		Roles:        req.Roles,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkRoleCaps rejects the request when granting a privileged role would
// exceed the configured cap.
func (s *UserService) checkRoleCaps(ctx context.Context, roles []string) error {
	setting := s.policy.Current(ctx)

	caps := map[string]int{
		models.RoleAdmin: setting.MaxAdminsNumber,
		models.RoleModer: setting.MaxModersNumber,
	}

	for _, code := range roles {
		limit, capped := caps[code]
		if !capped {
			continue
		}
		n, err := s.userRepo.CountWithRole(ctx, code)
		if err != nil {
			return err
		}
		if n >= limit {
			return &ConflictError{
				Message: fmt.Sprintf("Cannot grant role %q: limit of %d users reached", code, limit),
			}
		}
	}
	return nil
}
