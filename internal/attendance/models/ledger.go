package models

import (
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// StudentSnapshot is the member's identity denormalized onto the ledger at
// first check-in. It is never re-synced afterwards: the ledger records who
// the member was when attendance began.
type StudentSnapshot struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

// Ledger is the per-member, per-activity container of attendance entries.
// Exactly one ledger exists per (user, activity) pair; the store enforces
// the uniqueness. The ledger owns its records by value.
type Ledger struct {
	ID         id.LedgerID   `json:"id"`
	ActivityID id.ActivityID `json:"activity_id"`
	UserID     id.UserID     `json:"user_id"`

	Student StudentSnapshot `json:"student"`

	Entries []Record `json:"entries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLedger creates an empty ledger for a (user, activity) pair.
func NewLedger(activityID id.ActivityID, userID id.UserID, student StudentSnapshot, now time.Time) (*Ledger, error) {
	if activityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "activity id is required")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	return &Ledger{
		ID:         id.NewLedgerID(),
		ActivityID: activityID,
		UserID:     userID,
		Student:    student,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordByID returns the entry with the given ID.
func (l *Ledger) RecordByID(recordID id.RecordID) (*Record, bool) {
	for i := range l.Entries {
		if l.Entries[i].ID == recordID {
			return &l.Entries[i], true
		}
	}
	return nil, false
}

// HasEntry reports whether an entry of the given type already exists for the
// slot label. A slot takes at most one start and one end entry per member.
func (l *Ledger) HasEntry(slotLabel string, checkInType CheckInType) bool {
	for i := range l.Entries {
		if l.Entries[i].TimeSlot == slotLabel && l.Entries[i].CheckInType == checkInType {
			return true
		}
	}
	return false
}

// Append adds a new entry, enforcing the one-start-one-end-per-slot rule.
func (l *Ledger) Append(rec *Record, now time.Time) error {
	if l.HasEntry(rec.TimeSlot, rec.CheckInType) {
		return dErrors.Newf(dErrors.CodeConflict,
			"%s entry already recorded for %s", rec.CheckInType, rec.TimeSlot)
	}
	l.Entries = append(l.Entries, *rec)
	l.UpdatedAt = now
	return nil
}

// PendingEntries returns the entries still awaiting a verification decision.
func (l *Ledger) PendingEntries() []Record {
	var out []Record
	for i := range l.Entries {
		if l.Entries[i].Status == VerificationPending {
			out = append(out, l.Entries[i])
		}
	}
	return out
}
