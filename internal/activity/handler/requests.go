package handler

import (
	"strings"
	"time"

	"rollcall/internal/activity/models"
	"rollcall/internal/activity/service"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// TimeSlotInput is one slot definition in a creation request.
type TimeSlotInput struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    *bool  `json:"active,omitempty"`
}

// ScheduleDayInput maps a day number to its date in a creation request.
type ScheduleDayInput struct {
	DayNumber int    `json:"day_number"`
	Date      string `json:"date"`
}

// CreateActivityRequest is the HTTP request body for POST /activities.
type CreateActivityRequest struct {
	Name            string             `json:"name"`
	Kind            string             `json:"kind"`
	Date            string             `json:"date,omitempty"`
	Schedule        []ScheduleDayInput `json:"schedule,omitempty"`
	TimeSlots       []TimeSlotInput    `json:"time_slots"`
	MaxParticipants *int               `json:"max_participants,omitempty"`

	parsed service.CreateParams
}

// Validate validates and parses the request.
func (r *CreateActivityRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}

	kind := models.Kind(r.Kind)
	switch kind {
	case models.KindSingleDay:
		if r.Date == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "date is required for single-day activities")
		}
		if len(r.Schedule) > 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "schedule is not allowed for single-day activities")
		}
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return dErrors.Newf(dErrors.CodeInvalidInput, "malformed date %q, want YYYY-MM-DD", r.Date)
		}
		r.parsed.Date = date
	case models.KindMultiDay:
		if len(r.Schedule) == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "schedule is required for multi-day activities")
		}
		if r.Date != "" {
			return dErrors.New(dErrors.CodeInvalidInput, "date is not allowed for multi-day activities")
		}
		for _, day := range r.Schedule {
			date, err := time.Parse(dateLayout, day.Date)
			if err != nil {
				return dErrors.Newf(dErrors.CodeInvalidInput, "malformed date %q, want YYYY-MM-DD", day.Date)
			}
			r.parsed.Schedule = append(r.parsed.Schedule, models.ScheduleDay{
				DayNumber: day.DayNumber,
				Date:      date,
			})
		}
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown activity kind %q", r.Kind)
	}

	if len(r.TimeSlots) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one time slot is required")
	}
	for _, in := range r.TimeSlots {
		name, err := id.ParseSlotName(in.Name)
		if err != nil {
			return err
		}
		active := true
		if in.Active != nil {
			active = *in.Active
		}
		slot, err := models.NewTimeSlot(name, in.StartTime, in.EndTime, active)
		if err != nil {
			return err
		}
		r.parsed.Slots = append(r.parsed.Slots, slot)
	}

	r.parsed.Name = r.Name
	r.parsed.Kind = kind
	r.parsed.MaxParticipants = r.MaxParticipants
	return nil
}

// Params returns the validated creation parameters.
func (r *CreateActivityRequest) Params() service.CreateParams {
	return r.parsed
}

// TransitionRequest is the HTTP request body for POST
// /activities/{activityID}/status.
type TransitionRequest struct {
	Status string `json:"status"`

	parsedStatus models.Status
}

// Validate validates and parses the request.
func (r *TransitionRequest) Validate() error {
	status, err := models.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the validated target status.
func (r *TransitionRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}
