package handler

import (
	"strings"

	"rollcall/internal/activity/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// DaySlotInput pins a registration to one day's occurrence of a slot.
type DaySlotInput struct {
	DayNumber int    `json:"day_number"`
	Slot      string `json:"slot"`
}

// RegisterRequest is the HTTP request body for POST
// /activities/{activityID}/registrations. An empty day-slot list is legal for
// single-day activities and means every active slot of the day.
type RegisterRequest struct {
	DaySlots []DaySlotInput `json:"day_slots,omitempty"`

	parsed []models.DaySlot
}

// Validate validates and parses the request.
func (r *RegisterRequest) Validate() error {
	for _, in := range r.DaySlots {
		if in.DayNumber < 0 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "day number %d out of range", in.DayNumber)
		}
		slot, err := id.ParseSlotName(in.Slot)
		if err != nil {
			return err
		}
		r.parsed = append(r.parsed, models.DaySlot{DayNumber: in.DayNumber, Slot: slot})
	}
	return nil
}

// ParsedDaySlots returns the validated day-slot pairs.
func (r *RegisterRequest) ParsedDaySlots() []models.DaySlot {
	return r.parsed
}

// DecisionRequest is the HTTP request body for POST
// /activities/{activityID}/registrations/{userID}/decision.
type DecisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`

	parsedDecision id.Decision
}

// Validate validates and parses the request. Rejections carry a reason so the
// member learns why; approvals don't need one.
func (r *DecisionRequest) Validate() error {
	decision, err := id.ParseDecision(strings.TrimSpace(r.Decision))
	if err != nil {
		return err
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if decision == id.DecisionReject && r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required when rejecting")
	}
	r.parsedDecision = decision
	return nil
}

// ParsedDecision returns the validated decision.
func (r *DecisionRequest) ParsedDecision() id.Decision {
	return r.parsedDecision
}
