package handler

import (
	"strings"

	"rollcall/internal/attendance/models"
	"rollcall/internal/attendance/service"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// LocationInput is the location of a check-in event.
type LocationInput struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// CheckInRequest is the HTTP request body for POST
// /activities/{activityID}/attendance/check-ins.
type CheckInRequest struct {
	DayNumber  int           `json:"day_number,omitempty"`
	Slot       string        `json:"slot"`
	Type       string        `json:"type"`
	Location   LocationInput `json:"location"`
	PhotoURL   string        `json:"photo_url,omitempty"`
	LateReason string        `json:"late_reason,omitempty"`

	parsedSlot id.SlotName
	parsedType models.CheckInType
}

// Validate validates and parses the request.
func (r *CheckInRequest) Validate() error {
	if r.DayNumber < 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "day number %d out of range", r.DayNumber)
	}
	slot, err := id.ParseSlotName(strings.TrimSpace(r.Slot))
	if err != nil {
		return err
	}
	checkInType, err := models.ParseCheckInType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedSlot = slot
	r.parsedType = checkInType
	return nil
}

// Params returns the validated check-in parameters for one activity.
func (r *CheckInRequest) Params(activityID id.ActivityID) service.CheckInParams {
	return service.CheckInParams{
		ActivityID: activityID,
		DayNumber:  r.DayNumber,
		Slot:       r.parsedSlot,
		Type:       r.parsedType,
		Location: models.Location{
			Lat:     r.Location.Lat,
			Lng:     r.Location.Lng,
			Address: r.Location.Address,
		},
		PhotoURL:   r.PhotoURL,
		LateReason: r.LateReason,
	}
}

// VerifyRequest is the HTTP request body for POST
// /attendance/records/{recordID}/verification.
type VerifyRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`

	parsedStatus models.VerificationStatus
}

// Validate validates and parses the request. Only the two decision states are
// accepted; a record cannot be moved back to pending.
func (r *VerifyRequest) Validate() error {
	status, err := models.ParseVerificationStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	if status == models.VerificationPending {
		return dErrors.New(dErrors.CodeInvalidInput, "status must be approved or rejected")
	}
	r.Note = strings.TrimSpace(r.Note)
	if status == models.VerificationRejected && r.Note == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "note is required when rejecting")
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the validated target status.
func (r *VerifyRequest) ParsedStatus() models.VerificationStatus {
	return r.parsedStatus
}
