package handler

import (
	"time"

	"rollcall/internal/attendance/models"
	"rollcall/internal/attendance/service"
)

// RecordResponse is the public shape of one attendance entry.
type RecordResponse struct {
	ID          string           `json:"id"`
	TimeSlot    string           `json:"time_slot"`
	CheckInType string           `json:"check_in_type"`
	CheckInTime time.Time        `json:"check_in_time"`
	Location    LocationResponse `json:"location"`
	PhotoURL    string           `json:"photo_url,omitempty"`
	LateReason  string           `json:"late_reason,omitempty"`

	Status string `json:"status"`

	VerifiedBy       *string    `json:"verified_by,omitempty"`
	VerifiedByName   string     `json:"verified_by_name,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	VerificationNote string     `json:"verification_note,omitempty"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
}

// LocationResponse is where a check-in was recorded.
type LocationResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// LedgerResponse is the public shape of one member's attendance ledger.
type LedgerResponse struct {
	ID         string           `json:"id"`
	ActivityID string           `json:"activity_id"`
	UserID     string           `json:"user_id"`
	Student    StudentResponse  `json:"student"`
	Entries    []RecordResponse `json:"entries"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// StudentResponse is the member identity snapshot on a ledger.
type StudentResponse struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id,omitempty"`
}

// PendingEntryResponse pairs a pending record with its member.
type PendingEntryResponse struct {
	LedgerID string          `json:"ledger_id"`
	UserID   string          `json:"user_id"`
	Student  StudentResponse `json:"student"`
	Record   RecordResponse  `json:"record"`
}

// FromRecord maps an attendance entry onto its public shape.
func FromRecord(rec *models.Record) RecordResponse {
	resp := RecordResponse{
		ID:          rec.ID.String(),
		TimeSlot:    rec.TimeSlot,
		CheckInType: string(rec.CheckInType),
		CheckInTime: rec.CheckInTime,
		Location: LocationResponse{
			Lat:     rec.Location.Lat,
			Lng:     rec.Location.Lng,
			Address: rec.Location.Address,
		},
		PhotoURL:         rec.PhotoURL,
		LateReason:       rec.LateReason,
		Status:           rec.Status.String(),
		VerifiedByName:   rec.VerifiedByName,
		VerifiedAt:       rec.VerifiedAt,
		VerificationNote: rec.VerificationNote,
		CancelReason:     rec.CancelReason,
	}
	if rec.VerifiedBy != nil {
		s := rec.VerifiedBy.String()
		resp.VerifiedBy = &s
	}
	return resp
}

// FromLedger maps a ledger onto its public shape.
func FromLedger(l *models.Ledger) LedgerResponse {
	resp := LedgerResponse{
		ID:         l.ID.String(),
		ActivityID: l.ActivityID.String(),
		UserID:     l.UserID.String(),
		Student: StudentResponse{
			Name:      l.Student.Name,
			Email:     l.Student.Email,
			StudentID: l.Student.StudentID,
		},
		Entries:   []RecordResponse{},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	for i := range l.Entries {
		resp.Entries = append(resp.Entries, FromRecord(&l.Entries[i]))
	}
	return resp
}

// FromPendingEntries maps the pending review queue onto its public shape.
func FromPendingEntries(entries []service.PendingEntry) []PendingEntryResponse {
	out := make([]PendingEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, PendingEntryResponse{
			LedgerID: entries[i].LedgerID.String(),
			UserID:   entries[i].UserID.String(),
			Student: StudentResponse{
				Name:      entries[i].Student.Name,
				Email:     entries[i].Student.Email,
				StudentID: entries[i].Student.StudentID,
			},
			Record: FromRecord(&entries[i].Record),
		})
	}
	return out
}
