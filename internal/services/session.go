package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/activity"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
)

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// SessionService owns login state: password checks, the single-workstation
// IP policy, the redis session-validity markers, and forced logouts. It is
// the activity tracker's Terminator.
type SessionService struct {
	userRepo *repository.UserRepo
	redis    *redis.Client
	jwt      *middleware.JWTAuth
	tracker  *activity.Tracker
	notifier *Notifier
}

func NewSessionService(userRepo *repository.UserRepo, redisClient *redis.Client, jwt *middleware.JWTAuth, tracker *activity.Tracker, notifier *Notifier) *SessionService {
	return &SessionService{
		userRepo: userRepo,
		redis:    redisClient,
		jwt:      jwt,
		tracker:  tracker,
		notifier: notifier,
	}
}

// Login authenticates the user and applies the workstation policy: every
// account except administrators is pinned to a single network origin.
// Admins rebind their origin on each login; anyone else is rejected when
// the client origin already belongs to a different account or differs from
// their own binding.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest, origin string) (*models.AuthTokens, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &UnauthorizedError{Message: "Invalid username or password"}
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	if user.StatusCode == models.StatusBlocked {
		return nil, nil, &ForbiddenError{Message: "Account is blocked"}
	}

	if user.HasRole(models.RoleAdmin, models.RoleSuper) {
		user.ValidIP = origin
	} else {
		bound, err := s.userRepo.FindByValidIP(ctx, origin)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, err
		}
		switch {
		case err == nil && bound.ID != user.ID:
			return nil, nil, &UnauthorizedError{
				Message: fmt.Sprintf("Cannot log in as %s: this workstation is already bound to <%s>", user.Username, bound.Username),
			}
		case user.ValidIP == "":
			user.ValidIP = origin
		case user.ValidIP != origin:
			return nil, nil, &UnauthorizedError{
				Message: fmt.Sprintf("Account <%s> is bound to another workstation", user.Username),
			}
		}
	}

	now := time.Now()
	user.IsLoggedIn = true
	user.LoggedInAt = &now
	user.LastActivityAt = &now

	if err := s.userRepo.SaveLoginState(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to save login state: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(user.ID), "1", middleware.AccessTokenTTL).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to store session marker: %w", err)
	}

	s.tracker.Touch(user.ID)

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.notifier.Notify(ctx, user.ID, "Login state updated successfully.", "success")

	return &models.AuthTokens{
		AccessToken: token,
		ExpiresIn:   int(middleware.AccessTokenTTL.Seconds()),
	}, user, nil
}

// Logout drops the user's own session.
func (s *SessionService) Logout(ctx context.Context, user *models.User) error {
	if err := s.ForceLogout(ctx, user); err != nil {
		return err
	}
	s.notifier.Notify(ctx, user.ID, "You have been logged out.", "success")
	return nil
}

// ForceLogout marks the record logged out, clears the IP binding and the
// session-validity marker, and clears the activity record. Implements
// activity.Terminator.
func (s *SessionService) ForceLogout(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.IsLoggedIn = false
	user.ValidIP = ""
	user.LastActivityAt = &now

	if err := s.userRepo.SaveLoginState(ctx, user); err != nil {
		return fmt.Errorf("failed to save logout state for user %d: %w", user.ID, err)
	}

	if err := s.redis.Del(ctx, sessionKey(user.ID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session marker for user %d: %w", user.ID, err)
	}

	s.tracker.Clear(user.ID)
	return nil
}

// MarkLoggedIn re-synchronizes a record that lost its logged-in flag while
// the session marker stayed valid (e.g. after a restart).
func (s *SessionService) MarkLoggedIn(ctx context.Context, user *models.User, origin string) error {
	now := time.Now()
	user.IsLoggedIn = true
	user.LoggedInAt = &now
	user.ValidIP = origin

	if err := s.userRepo.SaveLoginState(ctx, user); err != nil {
		return fmt.Errorf("failed to re-sync login state for user %d: %w", user.ID, err)
	}
	return nil
}

// HasValidSession reports whether the session-validity marker is present.
func (s *SessionService) HasValidSession(ctx context.Context, userID int64) bool {
	n, err := s.redis.Exists(ctx, sessionKey(userID)).Result()
	return err == nil && n > 0
}

// ClearSession removes the session-validity marker without touching the
// user record. Used when the record itself no longer exists.
func (s *SessionService) ClearSession(ctx context.Context, userID int64) {
	s.redis.Del(ctx, sessionKey(userID))
	s.tracker.Clear(userID)
}

// ResetAllSessions logs out every user and clears their markers. Applied
// once at application startup: in-memory lock and activity state did not
// survive the restart, so persisted login state must not either.
func (s *SessionService) ResetAllSessions(ctx context.Context) error {
	if err := s.userRepo.ResetAllLoginState(ctx, time.Now()); err != nil {
		return fmt.Errorf("failed to reset login state: %w", err)
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, user := range users {
		if err := s.redis.Del(ctx, sessionKey(user.ID)).Err(); err != nil {
			return fmt.Errorf("failed to clear session marker for user %d: %w", user.ID, err)
		}
	}

	s.tracker.Reset()
	return nil
}

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type LockedError struct{ Message string }

func (e *LockedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
