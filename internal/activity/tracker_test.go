package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

type fakeDirectory struct {
	users []*models.User
	err   error
}

func (f *fakeDirectory) ListAll(ctx context.Context) ([]*models.User, error) {
	return f.users, f.err
}

type fakeTerminator struct {
	mu        sync.Mutex
	loggedOut []int64
	failFor   map[int64]error
	tracker   *Tracker
}

func (f *fakeTerminator) ForceLogout(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[user.ID]; ok {
		return err
	}
	f.loggedOut = append(f.loggedOut, user.ID)
	if f.tracker != nil {
		f.tracker.Clear(user.ID)
	}
	return nil
}

func (f *fakeTerminator) loggedOutIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.loggedOut...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, message, severity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, message)
}

func staffUser(id int64, username string) *models.User {
	return &models.User{ID: id, Username: username, Roles: []string{models.RoleOper}, IsLoggedIn: true}
}

func newTestTracker(dir *fakeDirectory, term *fakeTerminator, timeout time.Duration, period, max int64) (*Tracker, *fakeNotifier) {
	notifier := &fakeNotifier{}
	tracker := NewTracker(dir, term, notifier, timeout, period, max)
	term.tracker = tracker
	return tracker, notifier
}

func TestTracker_CounterIncrementsPerRequest(t *testing.T) {
	dir := &fakeDirectory{users: []*models.User{staffUser(1, "op1")}}
	term := &fakeTerminator{}
	tracker, _ := newTestTracker(dir, term, time.Hour, 5, 100)

	current := staffUser(1, "op1")
	for i := 1; i <= 9; i++ {
		if err := tracker.Track(context.Background(), current); err != nil {
			t.Fatalf("Track failed on request %d: %v", i, err)
		}
		if got := tracker.Counter(); got != int64(i) {
			t.Fatalf("Expected counter %d after request %d, got %d", i, i, got)
		}
	}

	if tracker.LastSeen(1).IsZero() {
		t.Error("Expected current user's activity to be recorded")
	}
}

func TestTracker_PeriodicSweepNoStaleUsers(t *testing.T) {
	// Scenario: 5 requests by a single active user, period 5, threshold 10.
	// The 5th request runs a sweep that finds nobody stale.
	dir := &fakeDirectory{users: []*models.User{staffUser(1, "op1")}}
	term := &fakeTerminator{}
	tracker, _ := newTestTracker(dir, term, time.Hour, 5, 10)

	current := staffUser(1, "op1")
	for i := 0; i < 5; i++ {
		if err := tracker.Track(context.Background(), current); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
	}

	if got := term.loggedOutIDs(); len(got) != 0 {
		t.Errorf("Expected no forced logouts, got %v", got)
	}
	if tracker.Counter() != 5 {
		t.Errorf("Expected counter 5, got %d", tracker.Counter())
	}
}

func TestTracker_SweepLogsOutStaleUser(t *testing.T) {
	// Scenario: user 2's last activity is 3601 seconds old with a 3600
	// second timeout; user 1's request on the period boundary sweeps them.
	users := []*models.User{staffUser(1, "op1"), staffUser(2, "op2")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{}
	tracker, notifier := newTestTracker(dir, term, 3600*time.Second, 5, 100)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	tracker.Touch(2)
	current = current.Add(3601 * time.Second)

	for i := 0; i < 5; i++ {
		if err := tracker.Track(context.Background(), users[0]); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
	}

	got := term.loggedOutIDs()
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("Expected user 2 forced out, got %v", got)
	}
	if !tracker.LastSeen(2).IsZero() {
		t.Error("Expected user 2's activity record cleared after forced logout")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.notices) != 1 {
		t.Errorf("Expected exactly one sweep notice, got %v", notifier.notices)
	}
}

func TestTracker_SweepSkipsCurrentUser(t *testing.T) {
	users := []*models.User{staffUser(1, "op1")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{}
	tracker, _ := newTestTracker(dir, term, time.Nanosecond, 5, 100)

	// Even with a vanishing timeout the requester is never swept by their
	// own request.
	for i := 0; i < 10; i++ {
		if err := tracker.Track(context.Background(), users[0]); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
		time.Sleep(time.Microsecond)
	}

	if got := term.loggedOutIDs(); len(got) != 0 {
		t.Errorf("Expected requester never swept, got %v", got)
	}
}

func TestTracker_SweepSkipsClearedRecords(t *testing.T) {
	users := []*models.User{staffUser(1, "op1"), staffUser(2, "op2")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{}
	tracker, _ := newTestTracker(dir, term, time.Nanosecond, 5, 100)

	tracker.Touch(2)
	tracker.Clear(2) // logged out: sweep must skip them

	for i := 0; i < 5; i++ {
		if err := tracker.Track(context.Background(), users[0]); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
	}

	if got := term.loggedOutIDs(); len(got) != 0 {
		t.Errorf("Expected cleared record skipped, got %v", got)
	}
}

func TestTracker_MassResetAtThreshold(t *testing.T) {
	// Scenario: period 5, threshold 10. The 10th request logs out every
	// roster user, the requester included, and restarts the counter.
	users := []*models.User{staffUser(1, "op1"), staffUser(2, "op2"), staffUser(3, "op3")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{}
	tracker, notifier := newTestTracker(dir, term, time.Hour, 5, 10)

	for i := 0; i < 10; i++ {
		if err := tracker.Track(context.Background(), users[0]); err != nil {
			t.Fatalf("Track failed on request %d: %v", i+1, err)
		}
	}

	got := term.loggedOutIDs()
	if len(got) != 3 {
		t.Fatalf("Expected every roster user forced out, got %v", got)
	}
	if tracker.Counter() != 0 {
		t.Errorf("Expected counter restarted at 0, got %d", tracker.Counter())
	}
	if !tracker.LastSeen(1).IsZero() {
		t.Error("Expected activity records cleared by the mass reset")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.notices) == 0 {
		t.Error("Expected a mass reset notice")
	}
}

func TestTracker_SweepContinuesPastFailures(t *testing.T) {
	users := []*models.User{staffUser(1, "op1"), staffUser(2, "op2"), staffUser(3, "op3")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{failFor: map[int64]error{2: errors.New("commit failed")}}
	tracker, _ := newTestTracker(dir, term, 10*time.Second, 5, 100)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	tracker.Touch(2)
	tracker.Touch(3)
	current = current.Add(time.Minute)

	for i := 0; i < 5; i++ {
		if err := tracker.Track(context.Background(), users[0]); err != nil {
			t.Fatalf("Track must not fail when another user's logout fails: %v", err)
		}
	}

	got := term.loggedOutIDs()
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("Expected user 3 still swept despite user 2's failure, got %v", got)
	}
}

func TestTracker_MassResetCurrentUserFailureIsFatal(t *testing.T) {
	users := []*models.User{staffUser(1, "op1"), staffUser(2, "op2")}
	dir := &fakeDirectory{users: users}
	term := &fakeTerminator{failFor: map[int64]error{1: errors.New("commit failed")}}
	tracker, _ := newTestTracker(dir, term, time.Hour, 5, 3)

	var err error
	for i := 0; i < 3; i++ {
		err = tracker.Track(context.Background(), users[0])
	}

	if err == nil {
		t.Fatal("Expected a fatal error when the current user's reset cannot be persisted")
	}
	if got := term.loggedOutIDs(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected the other user still reset, got %v", got)
	}
}

func TestTracker_ConcurrentTrackNoLostIncrements(t *testing.T) {
	dir := &fakeDirectory{users: []*models.User{staffUser(1, "op1")}}
	term := &fakeTerminator{}
	tracker, _ := newTestTracker(dir, term, time.Hour, 1000, 100000)

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			current := staffUser(1, "op1")
			for j := 0; j < perGoroutine; j++ {
				tracker.Track(context.Background(), current)
			}
		}()
	}
	wg.Wait()

	if got := tracker.Counter(); got != goroutines*perGoroutine {
		t.Errorf("Expected counter %d, got %d", goroutines*perGoroutine, got)
	}
}
