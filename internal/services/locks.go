package services

import (
	"context"
	"fmt"
	"log"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/pagelock"
)

// HolderLookup resolves a lock holder's user record for denial messages.
type HolderLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// LockNotifier publishes the denial notices.
type LockNotifier interface {
	Notify(ctx context.Context, userID int64, message, severity string)
}

// LockService sits between the edit handlers and the page-lock registry. It
// translates denials into user-facing errors naming the current holder.
type LockService struct {
	registry *pagelock.Registry
	users    HolderLookup
	notifier LockNotifier
}

func NewLockService(registry *pagelock.Registry, users HolderLookup, notifier LockNotifier) *LockService {
	return &LockService{registry: registry, users: users, notifier: notifier}
}

// AcquireEdit takes the edit lock for one record on behalf of a user.
func (s *LockService) AcquireEdit(ctx context.Context, blueprint, action string, recordID, userID int64) error {
	key, err := pagelock.NewKey(blueprint, action, recordID, userID)
	if err != nil {
		return &ValidationError{Fields: map[string]string{"lock": err.Error()}}
	}

	if s.registry.Lock(key) {
		return nil
	}

	holderName := "another user"
	if holder, ok := s.registry.Holder(key); ok && holder.UserID() != userID {
		if u, err := s.users.FindByID(ctx, holder.UserID()); err == nil {
			holderName = u.FullName()
		}
	} else if ok && holder.UserID() == userID {
		// Same user, same page: the existing lock stands until it expires
		// or is released.
		holderName = "you (in another window)"
	}

	msg := fmt.Sprintf("This record is being edited by %s. Try again later.", holderName)
	s.notifier.Notify(ctx, userID, msg, "warning")
	return &LockedError{Message: msg}
}

// ReleaseEdit gives the edit lock back. Releasing a lock you no longer hold
// is not an error.
func (s *LockService) ReleaseEdit(blueprint, action string, recordID, userID int64) {
	key, err := pagelock.NewKey(blueprint, action, recordID, userID)
	if err != nil {
		return
	}
	s.registry.Unlock(key)
}

// Summary reports current and lifetime lock counts for the admin page.
func (s *LockService) Summary() string {
	return s.registry.Summary()
}

// ClearAll drops every page lock. Used by administrators when a lock is
// wedged after a crashed client.
func (s *LockService) ClearAll(ctx context.Context, byUserID int64) {
	s.registry.ClearAll()
	log.Printf("All page locks cleared by user %d", byUserID)
	s.notifier.Notify(ctx, 0, "All page edit locks were cleared by an administrator.", "warning")
}
