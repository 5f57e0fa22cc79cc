package handler

import (
	"time"

	"rollcall/internal/activity/models"
)

// ActivityResponse is the public shape of one activity.
type ActivityResponse struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Kind             string                `json:"kind"`
	Status           string                `json:"status"`
	Date             string                `json:"date,omitempty"`
	StartDate        string                `json:"start_date,omitempty"`
	EndDate          string                `json:"end_date,omitempty"`
	Schedule         []ScheduleDayResponse `json:"schedule,omitempty"`
	TimeSlots        []TimeSlotResponse    `json:"time_slots"`
	MaxParticipants  *int                  `json:"max_participants,omitempty"`
	ParticipantCount int                   `json:"participant_count"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ScheduleDayResponse is one schedule day.
type ScheduleDayResponse struct {
	DayNumber int    `json:"day_number"`
	Date      string `json:"date"`
}

// TimeSlotResponse is one slot definition.
type TimeSlotResponse struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    bool   `json:"active"`
}

// FromActivity maps the domain activity onto its public shape. Participant
// registrations are exposed through the registration endpoints, not here.
func FromActivity(a *models.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:               a.ID.String(),
		Name:             a.Name,
		Kind:             string(a.Kind),
		Status:           a.Status.String(),
		MaxParticipants:  a.MaxParticipants,
		ParticipantCount: a.LiveParticipantCount(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Kind == models.KindSingleDay {
		resp.Date = a.Date.Format(dateLayout)
	} else {
		resp.StartDate = a.StartDate.Format(dateLayout)
		resp.EndDate = a.EndDate.Format(dateLayout)
		for _, day := range a.Schedule {
			resp.Schedule = append(resp.Schedule, ScheduleDayResponse{
				DayNumber: day.DayNumber,
				Date:      day.Date.Format(dateLayout),
			})
		}
	}
	for _, slot := range a.TimeSlots {
		resp.TimeSlots = append(resp.TimeSlots, TimeSlotResponse{
			Name:      slot.Name.String(),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Active:    slot.Active,
		})
	}
	return resp
}
