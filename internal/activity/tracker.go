package activity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

// Directory lists the full user roster. Backed by the user repository.
type Directory interface {
	ListAll(ctx context.Context) ([]*models.User, error)
}

// Terminator drops a user's session: marks the record logged-out, clears the
// IP binding and the session-validity marker, and commits. Implemented by
// the session service.
type Terminator interface {
	ForceLogout(ctx context.Context, user *models.User) error
}

// Notifier publishes user-visible notices (sweep results, forced logouts).
type Notifier interface {
	Notify(ctx context.Context, userID int64, message, severity string)
}

// Tracker keeps per-user last-activity timestamps and a global request
// counter, and drives the periodic liveness sweeps. One instance is built at
// startup and shared by every request handler.
//
// The counter decision (which branch of Track runs) is made under the mutex,
// so concurrent requests can neither lose increments nor both observe the
// same period boundary. The sweep itself runs outside the mutex: forcing a
// logout calls back into Clear, and the tracker never holds its lock across
// a call into a collaborator.
type Tracker struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time // zero time = cleared (logged out)
	counter  int64

	timeout      time.Duration
	period       int64
	maxThreshold int64

	dir      Directory
	term     Terminator
	notifier Notifier
	now      func() time.Time
}

// BindTerminator attaches the session terminator after construction. The
// tracker and the session service reference each other, so one of the two
// links is bound late, at startup, before any request is served.
func (t *Tracker) BindTerminator(term Terminator) {
	t.term = term
}

func NewTracker(dir Directory, term Terminator, notifier Notifier, timeout time.Duration, period, maxThreshold int64) *Tracker {
	return &Tracker{
		lastSeen:     make(map[int64]time.Time),
		timeout:      timeout,
		period:       period,
		maxThreshold: maxThreshold,
		dir:          dir,
		term:         term,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Track runs the per-request activity algorithm for the current user.
//
// Every tracked request increments the counter and records the current
// user's activity. On each period boundary below the max threshold, every
// OTHER roster user whose recorded activity is older than the timeout is
// force-logged-out. When the counter reaches the max threshold, every roster
// user is force-logged-out and the counter restarts (mass reset).
//
// Per-user persistence failures during a sweep are logged and do not abort
// the sweep. A failure to persist the current user's own reset is fatal and
// returned, so the caller drops the session.
func (t *Tracker) Track(ctx context.Context, current *models.User) error {
	t.mu.Lock()
	t.counter++
	counter := t.counter

	switch {
	case counter >= t.maxThreshold:
		// Mass reset: restart the cycle and clear every record before
		// sweeping, so a concurrent request starts a fresh cycle.
		t.counter = 0
		t.lastSeen = make(map[int64]time.Time)
		t.mu.Unlock()
		return t.massReset(ctx, current)

	case counter%t.period == 0:
		t.lastSeen[current.ID] = t.now()
		stale := t.staleUsersLocked(current.ID)
		t.mu.Unlock()
		t.sweep(ctx, stale)
		return nil

	default:
		t.lastSeen[current.ID] = t.now()
		t.mu.Unlock()
		return nil
	}
}

// staleUsersLocked collects the ids whose recorded activity exceeds the
// timeout. Caller holds t.mu. The current user and cleared entries are
// skipped.
func (t *Tracker) staleUsersLocked(currentID int64) []int64 {
	var stale []int64
	for id, seenAt := range t.lastSeen {
		if id == currentID || seenAt.IsZero() {
			continue
		}
		if t.now().Sub(seenAt) > t.timeout {
			stale = append(stale, id)
		}
	}
	return stale
}

func (t *Tracker) sweep(ctx context.Context, stale []int64) {
	if len(stale) == 0 {
		return
	}

	users, err := t.dir.ListAll(ctx)
	if err != nil {
		log.Printf("Activity sweep: roster refresh failed: %v", err)
		return
	}

	byID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	timeoutSecs := int(t.timeout.Seconds())
	for _, id := range stale {
		user, ok := byID[id]
		if !ok {
			continue
		}
		if err := t.term.ForceLogout(ctx, user); err != nil {
			log.Printf("Activity sweep: force logout of user %d failed: %v", id, err)
			continue
		}
		t.notifier.Notify(ctx, 0,
			fmt.Sprintf("User %s logged out after inactivity timeout (%d sec).", user.Username, timeoutSecs),
			"warning")
	}
}

// massReset force-logs-out every roster user, the current requester
// included. Counter and activity records were already cleared by Track.
func (t *Tracker) massReset(ctx context.Context, current *models.User) error {
	t.notifier.Notify(ctx, 0,
		fmt.Sprintf("Request limit for this run reached: <%d>. All users must log in again.", t.MaxThreshold()),
		"warning")

	users, err := t.dir.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("mass session reset: roster refresh failed: %w", err)
	}

	var currentErr error
	for _, user := range users {
		if err := t.term.ForceLogout(ctx, user); err != nil {
			if user.ID == current.ID {
				currentErr = fmt.Errorf("mass session reset: current user %d: %w", user.ID, err)
			}
			log.Printf("Mass session reset: force logout of user %d failed: %v", user.ID, err)
		}
	}
	return currentErr
}

// Touch records activity for a user outside the tracked-request path, e.g.
// right after login.
func (t *Tracker) Touch(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[id] = t.now()
}

// Clear marks a user's activity record as cleared, so sweeps skip them until
// they log in again.
func (t *Tracker) Clear(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[id] = time.Time{}
}

// Reset drops every activity record and restarts the counter. Used for the
// startup session reset.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter = 0
	t.lastSeen = make(map[int64]time.Time)
}

// Configure applies new policy thresholds, e.g. when an access setting is
// activated.
func (t *Tracker) Configure(timeout time.Duration, period, maxThreshold int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	t.period = period
	t.maxThreshold = maxThreshold
}

// Counter returns the current value of the global request counter.
func (t *Tracker) Counter() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counter
}

// LastSeen returns a user's recorded activity timestamp. The zero time means
// no record or a cleared record.
func (t *Tracker) LastSeen(id int64) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen[id]
}

// MaxThreshold returns the configured counter max threshold.
func (t *Tracker) MaxThreshold() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxThreshold
}
