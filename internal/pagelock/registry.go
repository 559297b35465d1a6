package pagelock

import (
	"fmt"
	"sync"
	"time"
)

// Registry is the in-process table of held edit-page locks. One instance is
// built at startup and shared by every request handler; all check-then-act
// sequences run under a single mutex, so two concurrent requests can never
// both acquire the same resource.
//
// Expiry is lazy: nothing purges locks in the background. A held lock older
// than the configured timeout is removed on the next Lock call that
// contends for its resource.
type Registry struct {
	mu            sync.Mutex
	locked        map[Key]time.Time
	timeout       time.Duration
	lockedTotal   uint64 // lifetime acquisitions, never reset
	unlockedTotal uint64 // lifetime releases, never reset
	now           func() time.Time
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		locked:  make(map[Key]time.Time),
		timeout: timeout,
		now:     time.Now,
	}
}

// Lock attempts to acquire the resource named by key. It never blocks: the
// result is immediate and the caller redirects the user on failure.
//
// Re-acquiring with the exact same key is also denied — the first
// acquisition's timestamp stands until release or expiry, so refreshing an
// edit page does not extend the holder's window.
func (r *Registry) Lock(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for held, acquiredAt := range r.locked {
		if !held.SameResource(key) {
			continue
		}
		if r.now().Sub(acquiredAt) > r.timeout {
			// Expired holder loses the resource to the contender.
			delete(r.locked, held)
			r.unlockedTotal++
			break
		}
		return false
	}

	r.locked[key] = r.now()
	r.lockedTotal++
	return true
}

// Unlock removes the exact structural match for key. Removing a key that is
// not held is a no-op, so double release is safe.
func (r *Registry) Unlock(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locked[key]; !ok {
		return false
	}
	delete(r.locked, key)
	r.unlockedTotal++
	return true
}

// Holder returns the key currently holding the same resource as key, if any.
// Used to name the editing user in the denial notice.
func (r *Registry) Holder(key Key) (Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for held := range r.locked {
		if held.SameResource(key) {
			return held, true
		}
	}
	return Key{}, false
}

// Expired reports whether the given key is held and past the configured
// timeout. Advisory only: callers must still Lock to claim the resource.
func (r *Registry) Expired(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	acquiredAt, ok := r.locked[key]
	if !ok {
		return false
	}
	return r.now().Sub(acquiredAt) > r.timeout
}

// Len returns the number of currently held locks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locked)
}

// Totals returns the lifetime acquisition and release counters.
func (r *Registry) Totals() (locked, unlocked uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lockedTotal, r.unlockedTotal
}

// Summary reports the current lock count, the busiest and least busy
// holders, and the lifetime counters.
func (r *Registry) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	perUser := make(map[int64]int)
	for held := range r.locked {
		perUser[held.UserID()]++
	}

	var mostUser, leastUser int64
	mostCount, leastCount := 0, 0
	for id, n := range perUser {
		if mostCount == 0 || n > mostCount || (n == mostCount && id < mostUser) {
			mostUser, mostCount = id, n
		}
		if leastCount == 0 || n < leastCount || (n == leastCount && id < leastUser) {
			leastUser, leastCount = id, n
		}
	}

	return fmt.Sprintf(
		"pages locked now: <%d>, most locks held by user <%d>: <%d>, "+
			"fewest locks held by user <%d>: <%d>, "+
			"pages locked since start: <%d>, pages unlocked since start: <%d>",
		len(r.locked), mostUser, mostCount, leastUser, leastCount,
		r.lockedTotal, r.unlockedTotal)
}

// ClearAll empties the lock table. Administrative override; the lifetime
// counters are left untouched.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = make(map[Key]time.Time)
}

// SetTimeout applies a new lock timeout, e.g. when an access setting is
// activated.
func (r *Registry) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Timeout returns the current lock timeout.
func (r *Registry) Timeout() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeout
}
