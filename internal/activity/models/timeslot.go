package models

import (
	"fmt"
	"strconv"
	"strings"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// TimeSlot is a named time window within an activity day, e.g. Morning
// 08:00-11:00. Times are "HH:MM" 24h strings; slots with Active=false are
// ignored by admission and conflict checks.
type TimeSlot struct {
	Name      id.SlotName `json:"name"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	Active    bool        `json:"active"`
}

// NewTimeSlot validates the slot definition.
func NewTimeSlot(name id.SlotName, startTime, endTime string, active bool) (TimeSlot, error) {
	if !name.IsValid() {
		return TimeSlot{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown slot name %q", name)
	}
	start, err := MinutesOfDay(startTime)
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := MinutesOfDay(endTime)
	if err != nil {
		return TimeSlot{}, err
	}
	if end <= start {
		return TimeSlot{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"slot %s must end after it starts (%s-%s)", name, startTime, endTime)
	}
	return TimeSlot{Name: name, StartTime: startTime, EndTime: endTime, Active: active}, nil
}

// Window resolves the slot's [start, end) interval in minutes since midnight.
func (ts TimeSlot) Window() (start, end int, err error) {
	start, err = MinutesOfDay(ts.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = MinutesOfDay(ts.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (ts TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", ts.Name, ts.StartTime, ts.EndTime)
}

// MinutesOfDay parses an "HH:MM" 24h time string into minutes since midnight.
func MinutesOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed time %q, want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed time %q, want HH:MM", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed time %q, want HH:MM", hhmm)
	}
	return h*60 + m, nil
}
