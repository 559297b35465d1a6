package pagelock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument signals a malformed key component (programmer
	// error, never user-facing).
	ErrInvalidArgument = errors.New("pagelock: invalid argument")

	// ErrInvalidFormat signals a blueprint name missing the "_bp" suffix.
	ErrInvalidFormat = errors.New("pagelock: invalid blueprint format")
)

// BlueprintSuffix marks a resource-category tag. Every blueprint name
// passed to NewKey must end with it.
const BlueprintSuffix = "_bp"

// Key identifies an edit-page lock: which record, on which edit page, is
// being edited and by whom. Keys are immutable after construction and
// comparable, so full structural equality (all four fields) is what a
// map[Key]T keys on. Resource equality — everything except the user — is a
// separate, explicitly named check (SameResource).
type Key struct {
	blueprint string
	action    string
	recordID  int64
	userID    int64
}

// NewKey validates all four components and returns an immutable Key.
func NewKey(blueprint, action string, recordID, userID int64) (Key, error) {
	if blueprint == "" {
		return Key{}, fmt.Errorf("%w: blueprint must not be empty", ErrInvalidArgument)
	}
	if action == "" {
		return Key{}, fmt.Errorf("%w: action must not be empty", ErrInvalidArgument)
	}
	if !strings.HasSuffix(blueprint, BlueprintSuffix) {
		return Key{}, fmt.Errorf("%w: blueprint %q must end with %q", ErrInvalidFormat, blueprint, BlueprintSuffix)
	}
	if recordID < 1 {
		return Key{}, fmt.Errorf("%w: record id must be >= 1, got %d", ErrInvalidArgument, recordID)
	}
	if userID < 1 {
		return Key{}, fmt.Errorf("%w: user id must be >= 1, got %d", ErrInvalidArgument, userID)
	}
	return Key{blueprint: blueprint, action: action, recordID: recordID, userID: userID}, nil
}

func (k Key) Blueprint() string { return k.blueprint }
func (k Key) Action() string    { return k.action }
func (k Key) RecordID() int64   { return k.recordID }
func (k Key) UserID() int64     { return k.userID }

// SameResource reports whether both keys target the same record on the same
// edit page, ignoring which user holds them. This is the contention check:
// "is anyone editing this record".
func (k Key) SameResource(other Key) bool {
	return k.blueprint == other.blueprint &&
		k.action == other.action &&
		k.recordID == other.recordID
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s.%d.%d", k.blueprint, k.action, k.recordID, k.userID)
}
