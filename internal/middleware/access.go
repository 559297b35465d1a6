package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

// UserDirectory loads the authoritative user record.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionControl is what the guard needs from the session service.
type SessionControl interface {
	HasValidSession(ctx context.Context, userID int64) bool
	ClearSession(ctx context.Context, userID int64)
	ForceLogout(ctx context.Context, user *models.User) error
	MarkLoggedIn(ctx context.Context, user *models.User, origin string) error
}

// ActivityTracker runs the per-request activity algorithm.
type ActivityTracker interface {
	Track(ctx context.Context, current *models.User) error
}

// Notifier publishes the user-visible denial notices.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message, severity string)
}

// IndexPath is the safe default page reachable by every role; role denials
// redirect there.
const IndexPath = "/"

// AccessGuard is the per-request authorization checkpoint wrapped around
// every protected operation. It validates the caller's session against the
// authoritative user record, runs the activity sweep, and checks roles.
//
// All lower-level failures are converted here into a denial with exactly
// one notice; nothing below the guard leaks errors to the client.
type AccessGuard struct {
	users    UserDirectory
	sessions SessionControl
	tracker  ActivityTracker
	notifier Notifier
}

func NewAccessGuard(users UserDirectory, sessions SessionControl, tracker ActivityTracker, notifier Notifier) *AccessGuard {
	return &AccessGuard{users: users, sessions: sessions, tracker: tracker, notifier: notifier}
}

// Require returns a middleware admitting only callers holding one of the
// given role codes. models.RoleAnyone admits every authenticated user.
func (g *AccessGuard) Require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := GetUserID(ctx)
			if userID == 0 {
				g.deny(w, r, 0, http.StatusUnauthorized, "UNAUTHORIZED",
					"Please log in to continue.", "")
				return
			}

			// Another action (forced logout, sweep, admin reset) may have
			// ended this session already.
			if !g.sessions.HasValidSession(ctx, userID) {
				g.deny(w, r, userID, http.StatusUnauthorized, "SESSION_STALE",
					"Your session has ended. Please log in again.", "")
				return
			}

			user, err := g.users.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					g.sessions.ClearSession(ctx, userID)
					g.deny(w, r, userID, http.StatusUnauthorized, "ACCOUNT_MISSING",
						"Your account no longer exists.", "")
					return
				}
				g.deny(w, r, userID, http.StatusServiceUnavailable, "ACCOUNT_UNAVAILABLE",
					"Unable to verify your account. Please log in again.", "")
				return
			}

			if user.StatusCode == models.StatusBlocked {
				if err := g.sessions.ForceLogout(ctx, user); err != nil {
					g.sessions.ClearSession(ctx, userID)
				}
				g.deny(w, r, userID, http.StatusForbidden, "ACCOUNT_BLOCKED",
					"Your account has been blocked.", "")
				return
			}

			// Record lost its logged-in flag while the session marker stayed
			// valid (e.g. after a restore). Re-sync, or drop the session if
			// the commit fails.
			if !user.IsLoggedIn {
				if err := g.sessions.MarkLoggedIn(ctx, user, ClientIP(r)); err != nil {
					if err := g.sessions.ForceLogout(ctx, user); err != nil {
						g.sessions.ClearSession(ctx, userID)
					}
					g.deny(w, r, userID, http.StatusUnauthorized, "SESSION_SYNC_FAILED",
						"Your session could not be restored. Please log in again.", "")
					return
				}
			}

			if err := g.tracker.Track(ctx, user); err != nil {
				if err := g.sessions.ForceLogout(ctx, user); err != nil {
					g.sessions.ClearSession(ctx, userID)
				}
				g.deny(w, r, userID, http.StatusUnauthorized, "SESSION_RESET",
					"All sessions were reset. Please log in again.", "")
				return
			}

			if !user.HasRole(roles...) {
				g.deny(w, r, userID, http.StatusForbidden, "ROLE_DENIED",
					"You do not have the required role for this page.", IndexPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, UserKey, user)))
		})
	}
}

// deny emits exactly one notice and the JSON denial body.
func (g *AccessGuard) deny(w http.ResponseWriter, r *http.Request, userID int64, status int, code, message, redirect string) {
	g.notifier.Notify(r.Context(), userID, message, "danger")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Redirect:  redirect,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	})
}
