package pagelock

import (
	"errors"
	"testing"
)

func TestNewKey_Validation(t *testing.T) {
	tests := []struct {
		name      string
		blueprint string
		action    string
		recordID  int64
		userID    int64
		wantErr   error
	}{
		{"valid", "applicants_bp", "edit_applicant", 42, 7, nil},
		{"empty blueprint", "", "edit_applicant", 42, 7, ErrInvalidArgument},
		{"empty action", "applicants_bp", "", 42, 7, ErrInvalidArgument},
		{"missing suffix", "applicants", "edit_applicant", 42, 7, ErrInvalidFormat},
		{"zero record id", "applicants_bp", "edit_applicant", 0, 7, ErrInvalidArgument},
		{"negative record id", "applicants_bp", "edit_applicant", -5, 7, ErrInvalidArgument},
		{"zero user id", "applicants_bp", "edit_applicant", 42, 0, ErrInvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, err := NewKey(tc.blueprint, tc.action, tc.recordID, tc.userID)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("NewKey returned unexpected error: %v", err)
				}
				if key.Blueprint() != tc.blueprint || key.Action() != tc.action ||
					key.RecordID() != tc.recordID || key.UserID() != tc.userID {
					t.Errorf("accessors do not round-trip: %v", key)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestKey_Equality(t *testing.T) {
	a, _ := NewKey("applicants_bp", "edit_applicant", 42, 7)
	b, _ := NewKey("applicants_bp", "edit_applicant", 42, 7)
	otherUser, _ := NewKey("applicants_bp", "edit_applicant", 42, 9)
	otherRecord, _ := NewKey("applicants_bp", "edit_applicant", 43, 7)
	otherAction, _ := NewKey("applicants_bp", "delete_applicant", 42, 7)

	if a != b {
		t.Error("structurally identical keys must compare equal")
	}
	if a == otherUser {
		t.Error("keys differing only in user id must not be equal")
	}

	// Comparable structs hash consistently with ==; a map keyed on two
	// equal keys must hold a single entry.
	m := map[Key]int{a: 1}
	m[b] = 2
	m[otherUser] = 3
	if len(m) != 2 {
		t.Errorf("Expected 2 map entries, got %d", len(m))
	}
	if m[a] != 2 {
		t.Errorf("Expected equal key to overwrite entry, got %d", m[a])
	}

	if !a.SameResource(otherUser) {
		t.Error("SameResource must ignore user id")
	}
	if a.SameResource(otherRecord) {
		t.Error("SameResource must compare record ids")
	}
	if a.SameResource(otherAction) {
		t.Error("SameResource must compare actions")
	}
}

func TestKey_String(t *testing.T) {
	key, _ := NewKey("visits_bp", "edit_visit", 3, 11)
	if got := key.String(); got != "visits_bp.edit_visit.3.11" {
		t.Errorf("Expected 'visits_bp.edit_visit.3.11', got %q", got)
	}
}
