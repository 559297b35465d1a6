package pagelock

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func mustKey(t *testing.T, blueprint, action string, recordID, userID int64) Key {
	t.Helper()
	key, err := NewKey(blueprint, action, recordID, userID)
	if err != nil {
		t.Fatalf("NewKey failed: %v", err)
	}
	return key
}

func TestRegistry_MutualExclusion(t *testing.T) {
	r := NewRegistry(time.Minute)

	first := mustKey(t, "applicants_bp", "edit_applicant", 42, 7)
	second := mustKey(t, "applicants_bp", "edit_applicant", 42, 9)

	if !r.Lock(first) {
		t.Fatal("first Lock must succeed")
	}
	if r.Lock(second) {
		t.Fatal("second Lock on the same resource must be denied")
	}
	if !r.Unlock(first) {
		t.Fatal("Unlock of a held key must report removal")
	}
	if !r.Lock(second) {
		t.Fatal("Lock after release must succeed")
	}
}

func TestRegistry_SameKeyReacquisitionDenied(t *testing.T) {
	// Refreshing the edit page must not grant a fresh timeout window.
	r := NewRegistry(time.Minute)
	key := mustKey(t, "visits_bp", "edit_visit", 1, 1)

	if !r.Lock(key) {
		t.Fatal("first Lock must succeed")
	}
	if r.Lock(key) {
		t.Error("re-acquiring the identical key must be denied")
	}

	locked, _ := r.Totals()
	if locked != 1 {
		t.Errorf("Expected 1 lifetime acquisition, got %d", locked)
	}
}

func TestRegistry_IdempotentUnlock(t *testing.T) {
	r := NewRegistry(time.Minute)
	key := mustKey(t, "contracts_bp", "edit_contract", 5, 2)

	r.Lock(key)
	if !r.Unlock(key) {
		t.Fatal("first Unlock must remove the entry")
	}
	if r.Unlock(key) {
		t.Error("second Unlock must be a no-op")
	}

	locked, unlocked := r.Totals()
	if locked != 1 || unlocked != 1 {
		t.Errorf("Expected totals (1, 1), got (%d, %d)", locked, unlocked)
	}
}

func TestRegistry_DifferentResourcesIndependent(t *testing.T) {
	r := NewRegistry(time.Minute)

	keys := []Key{
		mustKey(t, "applicants_bp", "edit_applicant", 1, 1),
		mustKey(t, "applicants_bp", "edit_applicant", 2, 1),
		mustKey(t, "organizations_bp", "edit_organization", 1, 1),
		mustKey(t, "applicants_bp", "delete_applicant", 1, 1),
	}

	for _, key := range keys {
		if !r.Lock(key) {
			t.Errorf("Lock(%v) must succeed: resources are independent", key)
		}
	}
	if r.Len() != len(keys) {
		t.Errorf("Expected %d held locks, got %d", len(keys), r.Len())
	}
}

func TestRegistry_LazyExpiry(t *testing.T) {
	r := NewRegistry(60 * time.Second)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	holder := mustKey(t, "applicants_bp", "edit_applicant", 42, 7)
	contender := mustKey(t, "applicants_bp", "edit_applicant", 42, 9)

	if !r.Lock(holder) {
		t.Fatal("Lock must succeed")
	}

	// Inside the window the holder keeps the resource.
	current = current.Add(59 * time.Second)
	if r.Lock(contender) {
		t.Fatal("contender must be denied before the timeout elapses")
	}
	if r.Expired(holder) {
		t.Error("holder must not be expired before the timeout elapses")
	}

	// Past the window the next contender purges the stale entry and wins.
	current = current.Add(2 * time.Second)
	if !r.Expired(holder) {
		t.Error("holder must report expired past the timeout")
	}
	if !r.Lock(contender) {
		t.Fatal("contender must win once the holder's lock expired")
	}
	if r.Len() != 1 {
		t.Errorf("Expected the stale entry purged, got %d held locks", r.Len())
	}

	held, ok := r.Holder(holder)
	if !ok || held.UserID() != 9 {
		t.Errorf("Expected user 9 to hold the resource, got %v (ok=%v)", held, ok)
	}
}

func TestRegistry_ConcurrentLockSingleWinner(t *testing.T) {
	r := NewRegistry(time.Minute)

	const goroutines = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			key := mustKeyConcurrent(userID)
			if r.Lock(key) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("Expected exactly 1 winner, got %d", winners)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 held lock, got %d", r.Len())
	}
}

// mustKeyConcurrent builds a valid key without *testing.T, for use inside
// goroutines.
func mustKeyConcurrent(userID int64) Key {
	key, err := NewKey("applicants_bp", "edit_applicant", 42, userID)
	if err != nil {
		panic(err)
	}
	return key
}

func TestRegistry_ClearAllKeepsTotals(t *testing.T) {
	r := NewRegistry(time.Minute)

	r.Lock(mustKey(t, "users_bp", "edit_user", 1, 1))
	r.Lock(mustKey(t, "users_bp", "edit_user", 2, 1))
	r.Unlock(mustKey(t, "users_bp", "edit_user", 1, 1))

	r.ClearAll()

	if r.Len() != 0 {
		t.Errorf("Expected empty registry after ClearAll, got %d", r.Len())
	}
	locked, unlocked := r.Totals()
	if locked != 2 || unlocked != 1 {
		t.Errorf("Expected totals (2, 1) untouched by ClearAll, got (%d, %d)", locked, unlocked)
	}
}

func TestRegistry_Summary(t *testing.T) {
	r := NewRegistry(time.Minute)

	r.Lock(mustKey(t, "applicants_bp", "edit_applicant", 1, 7))
	r.Lock(mustKey(t, "applicants_bp", "edit_applicant", 2, 7))
	r.Lock(mustKey(t, "visits_bp", "edit_visit", 1, 9))

	summary := r.Summary()
	for _, want := range []string{
		"pages locked now: <3>",
		"most locks held by user <7>: <2>",
		"fewest locks held by user <9>: <1>",
		"pages locked since start: <3>",
		"pages unlocked since start: <0>",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
