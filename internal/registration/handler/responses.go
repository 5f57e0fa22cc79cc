package handler

import (
	"time"

	"rollcall/internal/activity/models"
)

// RegistrationResponse is the public shape of one registration.
type RegistrationResponse struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Status       string            `json:"status"`
	DaySlots     []DaySlotResponse `json:"day_slots,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`

	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// DaySlotResponse is one registered day-slot pair.
type DaySlotResponse struct {
	DayNumber int    `json:"day_number"`
	Slot      string `json:"slot"`
}

// FromRegistration maps a registration onto its public shape.
func FromRegistration(reg *models.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:              reg.ID.String(),
		UserID:          reg.UserID.String(),
		Status:          reg.Status.String(),
		RegisteredAt:    reg.RegisteredAt,
		ApprovedAt:      reg.ApprovedAt,
		RejectedAt:      reg.RejectedAt,
		RejectionReason: reg.RejectionReason,
	}
	for _, ds := range reg.DaySlots {
		resp.DaySlots = append(resp.DaySlots, DaySlotResponse{
			DayNumber: ds.DayNumber,
			Slot:      ds.Slot.String(),
		})
	}
	if reg.ApprovedBy != nil {
		s := reg.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if reg.RejectedBy != nil {
		s := reg.RejectedBy.String()
		resp.RejectedBy = &s
	}
	return resp
}
