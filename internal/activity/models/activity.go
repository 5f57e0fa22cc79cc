package models

import (
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Kind distinguishes the two activity shapes.
type Kind string

const (
	// KindSingleDay is an activity on one fixed calendar date.
	KindSingleDay Kind = "single_day"
	// KindMultiDay is an activity spanning a day-indexed schedule.
	KindMultiDay Kind = "multi_day"
)

// ScheduleDay maps a day number to its calendar date within a multi-day
// activity. Day numbers start at 1 and are unique within the activity.
type ScheduleDay struct {
	DayNumber int       `json:"day_number"`
	Date      time.Time `json:"date"`
}

// Activity is the aggregate root for one calendar-bound activity. It owns its
// participant registrations by value; cross-entity references (user IDs,
// verifier IDs) are plain identifiers resolved by lookup.
//
// Invariants:
//   - SingleDay activities carry a Date and no Schedule
//   - MultiDay activities carry at least one ScheduleDay and no bare Date
//   - TimeSlots have unique names drawn from the supported slot names
//   - Status moves only along the lifecycle transition table
type Activity struct {
	ID   id.ActivityID `json:"id"`
	Name string        `json:"name"`
	Kind Kind          `json:"kind"`

	// Date is set for single-day activities only.
	Date time.Time `json:"date,omitempty"`
	// StartDate/EndDate/Schedule are set for multi-day activities only.
	StartDate time.Time     `json:"start_date,omitempty"`
	EndDate   time.Time     `json:"end_date,omitempty"`
	Schedule  []ScheduleDay `json:"schedule,omitempty"`

	TimeSlots []TimeSlot `json:"time_slots"`
	Status    Status     `json:"status"`

	// MaxParticipants is a soft capacity ceiling; nil means uncapped.
	MaxParticipants *int `json:"max_participants,omitempty"`

	Participants []Registration `json:"participants"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func validateSlots(slots []TimeSlot) error {
	if len(slots) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "activity needs at least one time slot")
	}
	seen := make(map[id.SlotName]bool, len(slots))
	for _, s := range slots {
		if _, _, err := s.Window(); err != nil {
			return err
		}
		if !s.Name.IsValid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown slot name %q", s.Name)
		}
		if seen[s.Name] {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate slot %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// NewSingleDay constructs a draft single-day activity.
func NewSingleDay(activityID id.ActivityID, name string, date time.Time, slots []TimeSlot, maxParticipants *int, now time.Time) (*Activity, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "activity name cannot be empty")
	}
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "single-day activity needs a date")
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}
	if maxParticipants != nil && *maxParticipants < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "max participants must be at least 1")
	}
	return &Activity{
		ID:              activityID,
		Name:            name,
		Kind:            KindSingleDay,
		Date:            date,
		TimeSlots:       slots,
		Status:          StatusDraft,
		MaxParticipants: maxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewMultiDay constructs a draft multi-day activity from a day-indexed
// schedule.
func NewMultiDay(activityID id.ActivityID, name string, schedule []ScheduleDay, slots []TimeSlot, maxParticipants *int, now time.Time) (*Activity, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "activity name cannot be empty")
	}
	if len(schedule) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "multi-day activity needs at least one schedule day")
	}
	seen := make(map[int]bool, len(schedule))
	start, end := schedule[0].Date, schedule[0].Date
	for _, day := range schedule {
		if day.DayNumber < 1 {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "day number %d out of range", day.DayNumber)
		}
		if seen[day.DayNumber] {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate day number %d", day.DayNumber)
		}
		if day.Date.IsZero() {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "day %d needs a date", day.DayNumber)
		}
		seen[day.DayNumber] = true
		if day.Date.Before(start) {
			start = day.Date
		}
		if day.Date.After(end) {
			end = day.Date
		}
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}
	if maxParticipants != nil && *maxParticipants < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "max participants must be at least 1")
	}
	return &Activity{
		ID:              activityID,
		Name:            name,
		Kind:            KindMultiDay,
		StartDate:       start,
		EndDate:         end,
		Schedule:        schedule,
		TimeSlots:       slots,
		Status:          StatusDraft,
		MaxParticipants: maxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SlotByName resolves the active time-slot definition for a slot name.
func (a *Activity) SlotByName(name id.SlotName) (TimeSlot, bool) {
	for _, s := range a.TimeSlots {
		if s.Name == name && s.Active {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// ActiveSlots returns the activity's active slot definitions.
func (a *Activity) ActiveSlots() []TimeSlot {
	var out []TimeSlot
	for _, s := range a.TimeSlots {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// DateForDay resolves the real calendar date of a day number. For single-day
// activities only day 0 and day 1 resolve, both to the activity date.
func (a *Activity) DateForDay(day int) (time.Time, bool) {
	if a.Kind == KindSingleDay {
		if day == 0 || day == 1 {
			return a.Date, true
		}
		return time.Time{}, false
	}
	for _, d := range a.Schedule {
		if d.DayNumber == day {
			return d.Date, true
		}
	}
	return time.Time{}, false
}

// RegistrationByUser returns the member's live registration, if any.
// Rejected and removed entries stay on the document for audit but do not
// block a fresh registration.
func (a *Activity) RegistrationByUser(userID id.UserID) (*Registration, bool) {
	for i := range a.Participants {
		if a.Participants[i].UserID == userID && a.Participants[i].IsLive() {
			return &a.Participants[i], true
		}
	}
	return nil, false
}

// RegistrationForDecision returns the member's most recent registration that
// is still subject to the approval workflow. Removed entries are terminal
// audit markers and never revisited; a rejected entry remains decidable
// because re-approval is supported.
func (a *Activity) RegistrationForDecision(userID id.UserID) (*Registration, bool) {
	for i := len(a.Participants) - 1; i >= 0; i-- {
		r := &a.Participants[i]
		if r.UserID == userID && r.Status != ApprovalRemoved {
			return r, true
		}
	}
	return nil, false
}

// RegistrationByID returns a registration by its ID regardless of status.
func (a *Activity) RegistrationByID(regID id.RegistrationID) (*Registration, bool) {
	for i := range a.Participants {
		if a.Participants[i].ID == regID {
			return &a.Participants[i], true
		}
	}
	return nil, false
}

// LiveParticipantCount counts registrations that still consume capacity.
func (a *Activity) LiveParticipantCount() int {
	n := 0
	for i := range a.Participants {
		if a.Participants[i].IsLive() {
			n++
		}
	}
	return n
}

// AtCapacity reports whether the live participant count has reached the
// ceiling. Uncapped activities are never at capacity.
func (a *Activity) AtCapacity() bool {
	return a.MaxParticipants != nil && a.LiveParticipantCount() >= *a.MaxParticipants
}

// CheckAdmission validates the admission preconditions for a new
// registration at the given time: admissible status, date not past for
// published single-day activities.
func (a *Activity) CheckAdmission(now time.Time) error {
	if !a.Status.AdmitsRegistration() {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"activity %q is %s and does not accept registrations", a.Name, a.Status)
	}
	if a.Status == StatusPublished && a.Kind == KindSingleDay {
		if dayStart(a.Date).Before(dayStart(now)) {
			return dErrors.Newf(dErrors.CodeInvalidState,
				"activity %q already took place", a.Name)
		}
	}
	return nil
}

// ValidateDaySlots checks that every requested (day, slot) pair resolves on
// this activity: the day exists on the schedule and the slot is active.
// Multi-day activities require at least one pair; an empty list would pin
// the registration to nothing and slip past conflict detection on both
// sides of a check.
func (a *Activity) ValidateDaySlots(daySlots []DaySlot) error {
	if a.Kind == KindMultiDay && len(daySlots) == 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"day slots are required to register for multi-day activity %q", a.Name)
	}
	for _, ds := range daySlots {
		if _, ok := a.DateForDay(ds.DayNumber); !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput,
				"day %d is not on the schedule of %q", ds.DayNumber, a.Name)
		}
		if _, ok := a.SlotByName(ds.Slot); !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput,
				"slot %s is not active on %q", ds.Slot, a.Name)
		}
	}
	return nil
}

// CanTransitionTo checks the lifecycle guard.
func (a *Activity) CanTransitionTo(next Status) error {
	if !a.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"activity cannot move from %s to %s", a.Status, next)
	}
	return nil
}

// ApplyTransition moves the lifecycle state. Call CanTransitionTo first.
func (a *Activity) ApplyTransition(next Status, now time.Time) {
	a.Status = next
	a.UpdatedAt = now
}

// dayStart normalizes a timestamp to midnight of its calendar day. Stored
// timestamps may carry nonzero time-of-day components unrelated to the
// activity's actual day, so raw equality is never used for date comparison.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameCalendarDay reports whether two timestamps fall on the same calendar
// day, ignoring time-of-day.
func SameCalendarDay(a, b time.Time) bool {
	return dayStart(a).Equal(dayStart(b))
}
