package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type fakeDirectory struct {
	user *models.User
	err  error
}

func (d *fakeDirectory) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.user, nil
}

type fakeSessions struct {
	valid       bool
	cleared     []int64
	loggedOut   []int64
	marked      []int64
	markOrigin  string
	markErr     error
	forceLogErr error
}

func (s *fakeSessions) HasValidSession(ctx context.Context, userID int64) bool { return s.valid }

func (s *fakeSessions) ClearSession(ctx context.Context, userID int64) {
	s.cleared = append(s.cleared, userID)
}

func (s *fakeSessions) ForceLogout(ctx context.Context, user *models.User) error {
	s.loggedOut = append(s.loggedOut, user.ID)
	return s.forceLogErr
}

func (s *fakeSessions) MarkLoggedIn(ctx context.Context, user *models.User, origin string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, user.ID)
	s.markOrigin = origin
	user.IsLoggedIn = true
	return nil
}

type fakeTracker struct {
	calls int
	err   error
}

func (t *fakeTracker) Track(ctx context.Context, current *models.User) error {
	t.calls++
	return t.err
}

type fakeGuardNotifier struct {
	notices []string
}

func (n *fakeGuardNotifier) Notify(ctx context.Context, userID int64, message, severity string) {
	n.notices = append(n.notices, message)
}

func activeUser(roles ...string) *models.User {
	return &models.User{
		ID:         7,
		Username:   "ivanov_ii",
		StatusCode: "active",
		IsLoggedIn: true,
		Roles:      roles,
	}
}

type guardFixture struct {
	dir      *fakeDirectory
	sessions *fakeSessions
	tracker  *fakeTracker
	notifier *fakeGuardNotifier
	guard    *AccessGuard
}

func newGuardFixture(user *models.User) *guardFixture {
	f := &guardFixture{
		dir:      &fakeDirectory{user: user},
		sessions: &fakeSessions{valid: true},
		tracker:  &fakeTracker{},
		notifier: &fakeGuardNotifier{},
	}
	f.guard = NewAccessGuard(f.dir, f.sessions, f.tracker, f.notifier)
	return f
}

// serve runs a request with the given caller id through Require(roles...)
// and reports whether the inner handler ran plus the recorded response.
func (f *guardFixture) serve(userID int64, roles ...string) (bool, *httptest.ResponseRecorder, *models.User) {
	reached := false
	var attached *models.User
	handler := f.guard.Require(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		attached = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/applicants/1", nil)
	req.RemoteAddr = "10.0.0.15:54012"
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return reached, rec, attached
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error
}

func TestRequireUnauthenticated(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))

	reached, rec, _ := f.serve(0, models.RoleOper)
	if reached {
		t.Fatal("handler ran without authentication")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", got)
	}
	if len(f.notifier.notices) != 1 {
		t.Errorf("notices = %d, want exactly 1", len(f.notifier.notices))
	}
}

func TestRequireStaleSession(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))
	f.sessions.valid = false

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran with a stale session")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "SESSION_STALE" {
		t.Errorf("code = %q, want SESSION_STALE", got)
	}
	if f.tracker.calls != 0 {
		t.Error("tracker ran for a stale session")
	}
}

func TestRequireAccountMissing(t *testing.T) {
	f := newGuardFixture(nil)
	f.dir.err = pgx.ErrNoRows

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran for a deleted account")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "ACCOUNT_MISSING" {
		t.Errorf("code = %q, want ACCOUNT_MISSING", got)
	}
	if len(f.sessions.cleared) != 1 || f.sessions.cleared[0] != 7 {
		t.Errorf("cleared sessions = %v, want [7]", f.sessions.cleared)
	}
}

func TestRequireDirectoryUnavailable(t *testing.T) {
	f := newGuardFixture(nil)
	f.dir.err = errors.New("connection refused")

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran while the directory was down")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if len(f.sessions.cleared) != 0 {
		t.Error("session cleared on a transient directory failure")
	}
}

func TestRequireBlockedAccount(t *testing.T) {
	user := activeUser(models.RoleOper)
	user.StatusCode = models.StatusBlocked
	f := newGuardFixture(user)

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran for a blocked account")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "ACCOUNT_BLOCKED" {
		t.Errorf("code = %q, want ACCOUNT_BLOCKED", got)
	}
	if len(f.sessions.loggedOut) != 1 {
		t.Errorf("forced logouts = %v, want [7]", f.sessions.loggedOut)
	}
}

func TestRequireRestoresLoginState(t *testing.T) {
	user := activeUser(models.RoleOper)
	user.IsLoggedIn = false
	f := newGuardFixture(user)

	reached, rec, _ := f.serve(7, models.RoleOper)
	if !reached {
		t.Fatalf("handler did not run, status = %d", rec.Code)
	}
	if len(f.sessions.marked) != 1 || f.sessions.marked[0] != 7 {
		t.Errorf("marked logged in = %v, want [7]", f.sessions.marked)
	}
	if f.sessions.markOrigin != "10.0.0.15" {
		t.Errorf("login origin = %q, want 10.0.0.15", f.sessions.markOrigin)
	}
}

func TestRequireLoginSyncFailure(t *testing.T) {
	user := activeUser(models.RoleOper)
	user.IsLoggedIn = false
	f := newGuardFixture(user)
	f.sessions.markErr = errors.New("users table locked")

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran after a failed login-state restore")
	}
	if got := decodeError(t, rec).Code; got != "SESSION_SYNC_FAILED" {
		t.Errorf("code = %q, want SESSION_SYNC_FAILED", got)
	}
	if len(f.sessions.loggedOut) != 1 {
		t.Errorf("forced logouts = %v, want [7]", f.sessions.loggedOut)
	}
}

func TestRequireTrackFailure(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))
	f.tracker.err = errors.New("login state not persisted")

	reached, rec, _ := f.serve(7, models.RoleOper)
	if reached {
		t.Fatal("handler ran after the activity sweep failed")
	}
	if got := decodeError(t, rec).Code; got != "SESSION_RESET" {
		t.Errorf("code = %q, want SESSION_RESET", got)
	}
	if len(f.sessions.loggedOut) != 1 {
		t.Errorf("forced logouts = %v, want [7]", f.sessions.loggedOut)
	}
}

func TestRequireRoleDenied(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))

	reached, rec, _ := f.serve(7, models.RoleSuper)
	if reached {
		t.Fatal("handler ran without the required role")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != "ROLE_DENIED" {
		t.Errorf("code = %q, want ROLE_DENIED", apiErr.Code)
	}
	if apiErr.Redirect != IndexPath {
		t.Errorf("redirect = %q, want %q", apiErr.Redirect, IndexPath)
	}
	if len(f.notifier.notices) != 1 {
		t.Errorf("notices = %d, want exactly 1", len(f.notifier.notices))
	}
}

func TestRequireAllowed(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))

	reached, rec, attached := f.serve(7, models.RoleAdmin, models.RoleOper)
	if !reached {
		t.Fatalf("handler did not run, status = %d", rec.Code)
	}
	if attached == nil || attached.ID != 7 {
		t.Fatalf("attached user = %+v, want record with id 7", attached)
	}
	if f.tracker.calls != 1 {
		t.Errorf("tracker calls = %d, want 1", f.tracker.calls)
	}
	if len(f.notifier.notices) != 0 {
		t.Errorf("notices = %v, want none on an allowed request", f.notifier.notices)
	}
}

func TestRequireAnyoneWildcard(t *testing.T) {
	f := newGuardFixture(activeUser(models.RoleOper))

	reached, rec, _ := f.serve(7, models.RoleAnyone)
	if !reached {
		t.Fatalf("handler did not run, status = %d", rec.Code)
	}
}
