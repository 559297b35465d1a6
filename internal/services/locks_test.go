package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/pagelock"
)

type fakeHolderLookup struct {
	users map[int64]*models.User
}

func (f *fakeHolderLookup) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	return u, nil
}

type fakeLockNotifier struct {
	notices []models.Notice
}

func (f *fakeLockNotifier) Notify(ctx context.Context, userID int64, message, severity string) {
	f.notices = append(f.notices, models.Notice{UserID: userID, Message: message, Severity: severity})
}

func newLockFixture(t *testing.T) (*LockService, *pagelock.Registry, *fakeLockNotifier) {
	t.Helper()
	registry := pagelock.NewRegistry(time.Minute)
	lookup := &fakeHolderLookup{users: map[int64]*models.User{
		1: {ID: 1, LastName: "Petrov", FirstName: "Petr"},
		2: {ID: 2, LastName: "Sidorova", FirstName: "Anna"},
	}}
	notifier := &fakeLockNotifier{}
	return NewLockService(registry, lookup, notifier), registry, notifier
}

func TestAcquireEditGrantsFreeLock(t *testing.T) {
	svc, registry, notifier := newLockFixture(t)

	if err := svc.AcquireEdit(context.Background(), "applicants_bp", "edit_applicant", 10, 1); err != nil {
		t.Fatalf("AcquireEdit() = %v, want nil", err)
	}
	if registry.Len() != 1 {
		t.Errorf("registry holds %d locks, want 1", registry.Len())
	}
	if len(notifier.notices) != 0 {
		t.Errorf("notices = %v, want none on a granted lock", notifier.notices)
	}
}

func TestAcquireEditDeniedNamesHolder(t *testing.T) {
	svc, _, notifier := newLockFixture(t)
	ctx := context.Background()

	if err := svc.AcquireEdit(ctx, "applicants_bp", "edit_applicant", 10, 1); err != nil {
		t.Fatalf("first AcquireEdit() = %v, want nil", err)
	}

	err := svc.AcquireEdit(ctx, "applicants_bp", "edit_applicant", 10, 2)
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("second AcquireEdit() = %v, want *LockedError", err)
	}
	if !strings.Contains(locked.Message, "Petrov Petr") {
		t.Errorf("message %q does not name the holder", locked.Message)
	}
	if len(notifier.notices) != 1 || notifier.notices[0].UserID != 2 {
		t.Errorf("notices = %v, want one for the denied user", notifier.notices)
	}
}

func TestAcquireEditSameUserSamePage(t *testing.T) {
	svc, _, _ := newLockFixture(t)
	ctx := context.Background()

	if err := svc.AcquireEdit(ctx, "applicants_bp", "edit_applicant", 10, 1); err != nil {
		t.Fatalf("first AcquireEdit() = %v, want nil", err)
	}

	err := svc.AcquireEdit(ctx, "applicants_bp", "edit_applicant", 10, 1)
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("repeat AcquireEdit() = %v, want *LockedError", err)
	}
	if !strings.Contains(locked.Message, "another window") {
		t.Errorf("message %q should point at the user's own open window", locked.Message)
	}
}

func TestAcquireEditInvalidKey(t *testing.T) {
	svc, _, _ := newLockFixture(t)

	err := svc.AcquireEdit(context.Background(), "applicants", "edit_applicant", 10, 1)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("AcquireEdit() with bad blueprint = %v, want *ValidationError", err)
	}
}

func TestReleaseEditFreesResource(t *testing.T) {
	svc, _, _ := newLockFixture(t)
	ctx := context.Background()

	if err := svc.AcquireEdit(ctx, "visits_bp", "edit_visit", 3, 1); err != nil {
		t.Fatalf("AcquireEdit() = %v, want nil", err)
	}
	svc.ReleaseEdit("visits_bp", "edit_visit", 3, 1)

	if err := svc.AcquireEdit(ctx, "visits_bp", "edit_visit", 3, 2); err != nil {
		t.Fatalf("AcquireEdit() after release = %v, want nil", err)
	}
}

func TestClearAllNotifiesEveryone(t *testing.T) {
	svc, registry, notifier := newLockFixture(t)
	ctx := context.Background()

	svc.AcquireEdit(ctx, "visits_bp", "edit_visit", 3, 1)
	svc.AcquireEdit(ctx, "orgs_bp", "edit_organization", 5, 2)

	svc.ClearAll(ctx, 1)

	if registry.Len() != 0 {
		t.Errorf("registry holds %d locks after ClearAll, want 0", registry.Len())
	}
	if len(notifier.notices) != 1 || notifier.notices[0].UserID != 0 {
		t.Errorf("notices = %v, want one broadcast", notifier.notices)
	}
}
