package models

import (
	"fmt"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// CheckInType distinguishes the start and end events of a slot.
type CheckInType string

const (
	CheckInStart CheckInType = "start"
	CheckInEnd   CheckInType = "end"
)

// ParseCheckInType constructs a CheckInType from external input.
func ParseCheckInType(s string) (CheckInType, error) {
	switch CheckInType(s) {
	case CheckInStart, CheckInEnd:
		return CheckInType(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown check-in type %q", s)
	}
}

// VerificationStatus is the review state of one attendance record.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// verificationTransitions enumerates the workflow moves. No transition is
// forbidden: a verifier may correct a prior decision in either direction,
// and re-applying the same decision refreshes the stamp (idempotent).
var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationPending:  {VerificationApproved, VerificationRejected},
	VerificationApproved: {VerificationApproved, VerificationRejected},
	VerificationRejected: {VerificationApproved, VerificationRejected},
}

// ParseVerificationStatus constructs a VerificationStatus from external input.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	st := VerificationStatus(s)
	if _, ok := verificationTransitions[st]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the workflow allows moving to next.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	for _, allowed := range verificationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s VerificationStatus) String() string { return string(s) }

// Location is where a check-in event was recorded.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Verifier is the identity stamp recorded on every verification transition.
type Verifier struct {
	ID    id.UserID
	Name  string
	Email string
}

// Record is one attendance entry: a single check-in or check-out event.
// Identity fields (slot, type, time, location, photo) are immutable after
// creation; the verification fields are mutated by the workflow and the
// record is never deleted.
//
// Note semantics: VerificationNote is the approval comment, CancelReason the
// rejection comment. Both may be physically present for the audit trail, but
// only the one matching the current status is authoritative.
type Record struct {
	ID id.RecordID `json:"id"`

	// TimeSlot is the slot label: the bare slot name for single-day
	// activities, or "Day <n> - <slot>" for multi-day ones.
	TimeSlot    string      `json:"time_slot"`
	CheckInType CheckInType `json:"check_in_type"`
	CheckInTime time.Time   `json:"check_in_time"`
	Location    Location    `json:"location"`
	PhotoURL    string      `json:"photo_url,omitempty"`
	// LateReason is supplied by the student, independent of verification.
	LateReason string `json:"late_reason,omitempty"`

	Status VerificationStatus `json:"status"`

	VerifiedBy       *id.UserID `json:"verified_by,omitempty"`
	VerifiedByName   string     `json:"verified_by_name,omitempty"`
	VerifiedByEmail  string     `json:"verified_by_email,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	VerificationNote string     `json:"verification_note,omitempty"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
}

// SlotLabel renders the composite label attendance records use for multi-day
// activities. Day 0 means a single-day activity and yields the bare name.
func SlotLabel(day int, slot id.SlotName) string {
	if day == 0 {
		return slot.String()
	}
	return fmt.Sprintf("Day %d - %s", day, slot)
}

// NewRecord creates a pending record for one check-in event.
func NewRecord(slotLabel string, checkInType CheckInType, checkInTime time.Time, loc Location, photoURL, lateReason string) (*Record, error) {
	if slotLabel == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "slot label is required")
	}
	if checkInType != CheckInStart && checkInType != CheckInEnd {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown check-in type %q", checkInType)
	}
	return &Record{
		ID:          id.NewRecordID(),
		TimeSlot:    slotLabel,
		CheckInType: checkInType,
		CheckInTime: checkInTime,
		Location:    loc,
		PhotoURL:    photoURL,
		LateReason:  lateReason,
		Status:      VerificationPending,
	}, nil
}

// CanVerify checks the transition guard for the given target status.
func (r *Record) CanVerify(next VerificationStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"record in status %s cannot move to %s", r.Status, next)
	}
	return nil
}

// ApplyApproval marks the record approved, stamps the verifier and stores the
// note as the approval comment. The rejection comment is cleared: it is no
// longer authoritative. Every transition overwrites the previous stamp.
func (r *Record) ApplyApproval(by Verifier, now time.Time, note string) {
	r.Status = VerificationApproved
	r.stamp(by, now)
	r.VerificationNote = note
	r.CancelReason = ""
}

// ApplyRejection marks the record rejected and stamps the verifier. The note
// is dual-written to both CancelReason and VerificationNote so readers keyed
// off either field stay consistent.
func (r *Record) ApplyRejection(by Verifier, now time.Time, note string) {
	r.Status = VerificationRejected
	r.stamp(by, now)
	r.CancelReason = note
	r.VerificationNote = note
}

func (r *Record) stamp(by Verifier, now time.Time) {
	v := by.ID
	r.VerifiedBy = &v
	r.VerifiedByName = by.Name
	r.VerifiedByEmail = by.Email
	t := now
	r.VerifiedAt = &t
}
