package models

import (
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// ApprovalStatus is the workflow state of a participant registration.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	// ApprovalRemoved is a terminal audit marker. A removed registration is
	// never reused; re-registration creates a fresh entry.
	ApprovalRemoved ApprovalStatus = "removed"
)

// approvalTransitions enumerates every legal decision move. Rejection is not
// permanently punitive: an officer may re-approve a rejected registration,
// and may reverse a prior approval. Re-applying the current decision is
// legal and refreshes the audit stamp, matching the verification workflow.
var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:  {ApprovalApproved, ApprovalRejected, ApprovalRemoved},
	ApprovalApproved: {ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalRemoved},
	ApprovalRejected: {ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalRemoved},
	ApprovalRemoved:  {},
}

// ParseApprovalStatus constructs an ApprovalStatus from external input.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	st := ApprovalStatus(s)
	if _, ok := approvalTransitions[st]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown approval status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the decision workflow allows moving to next.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, allowed := range approvalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsLive reports whether the status can still consume the member's time.
// Only live registrations count against capacity and produce schedule
// conflicts.
func (s ApprovalStatus) IsLive() bool {
	return s == ApprovalPending || s == ApprovalApproved
}

func (s ApprovalStatus) String() string { return string(s) }

// DaySlot pins a multi-day registration to a specific day's occurrence of a
// named slot.
type DaySlot struct {
	DayNumber int         `json:"day_number"`
	Slot      id.SlotName `json:"slot"`
}

// Registration is a member's registration on an activity, owned by value by
// the activity document.
//
// Invariants:
//   - approval audit is XOR: setting the approval pair clears the rejection
//     triplet and vice versa
//   - RegisteredDaySlots is required for multi-day activities; for single-day
//     activities an empty list means "all active slots of the day"
//   - Removed is terminal; no decision revives a removed registration
type Registration struct {
	ID       id.RegistrationID `json:"id"`
	UserID   id.UserID         `json:"user_id"`
	Status   ApprovalStatus    `json:"status"`
	DaySlots []DaySlot         `json:"day_slots,omitempty"`

	RegisteredAt time.Time `json:"registered_at"`

	ApprovedBy *id.UserID `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejectedBy      *id.UserID `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// NewRegistration creates a pending registration.
func NewRegistration(userID id.UserID, daySlots []DaySlot, now time.Time) (*Registration, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	seen := make(map[DaySlot]bool, len(daySlots))
	for _, ds := range daySlots {
		if !ds.Slot.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown slot name %q", ds.Slot)
		}
		if seen[ds] {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput,
				"duplicate day slot (day %d, %s)", ds.DayNumber, ds.Slot)
		}
		seen[ds] = true
	}
	return &Registration{
		ID:           id.NewRegistrationID(),
		UserID:       userID,
		Status:       ApprovalPending,
		DaySlots:     daySlots,
		RegisteredAt: now,
	}, nil
}

// IsLive reports whether the registration still counts for capacity and
// conflict checks.
func (r *Registration) IsLive() bool { return r.Status.IsLive() }

// CoversSlot reports whether the registration includes the given (day, slot)
// pair. An empty day-slot list covers every slot (single-day backward
// compatibility).
func (r *Registration) CoversSlot(day int, slot id.SlotName) bool {
	if len(r.DaySlots) == 0 {
		return true
	}
	for _, ds := range r.DaySlots {
		if ds.DayNumber == day && ds.Slot == slot {
			return true
		}
	}
	return false
}

// CanApprove checks the transition guard for approval.
func (r *Registration) CanApprove() error {
	if !r.Status.CanTransitionTo(ApprovalApproved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"registration in status %s cannot be approved", r.Status)
	}
	return nil
}

// ApplyApproval stamps the approval pair and clears the rejection triplet.
// Call CanApprove first.
func (r *Registration) ApplyApproval(actor id.UserID, now time.Time) {
	r.Status = ApprovalApproved
	r.ApprovedBy = &actor
	r.ApprovedAt = &now
	r.RejectedBy = nil
	r.RejectedAt = nil
	r.RejectionReason = ""
}

// CanReject checks the transition guard for rejection.
func (r *Registration) CanReject() error {
	if !r.Status.CanTransitionTo(ApprovalRejected) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"registration in status %s cannot be rejected", r.Status)
	}
	return nil
}

// ApplyRejection stamps the rejection triplet and clears the approval pair.
// Call CanReject first.
func (r *Registration) ApplyRejection(actor id.UserID, now time.Time, reason string) {
	r.Status = ApprovalRejected
	r.RejectedBy = &actor
	r.RejectedAt = &now
	r.RejectionReason = reason
	r.ApprovedBy = nil
	r.ApprovedAt = nil
}

// CanRemove checks the transition guard for removal.
func (r *Registration) CanRemove() error {
	if !r.Status.CanTransitionTo(ApprovalRemoved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"registration in status %s cannot be removed", r.Status)
	}
	return nil
}

// ApplyRemoval marks the registration removed. The entry stays on the
// activity for audit but no longer counts as live.
func (r *Registration) ApplyRemoval() {
	r.Status = ApprovalRemoved
}
