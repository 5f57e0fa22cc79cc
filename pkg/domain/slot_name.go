package domain

import dErrors "rollcall/pkg/domain-errors"

// SlotName identifies a named time window within an activity day.
// Invariant: the value must be one of the three supported slot names.
//
// Slot names are activity-local labels, not numeric IDs. Multi-day activities
// reuse the same three names across all days, which is why slot-name equality
// doubles as a same-wall-clock-window test during conflict detection.
type SlotName string

// Supported slot names.
const (
	SlotMorning   SlotName = "Morning"
	SlotAfternoon SlotName = "Afternoon"
	SlotEvening   SlotName = "Evening"
)

// validSlotNames is the single source of truth for valid slot names.
var validSlotNames = map[SlotName]bool{
	SlotMorning:   true,
	SlotAfternoon: true,
	SlotEvening:   true,
}

// ParseSlotName constructs a SlotName from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseSlotName(s string) (SlotName, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "slot name cannot be empty")
	}
	n := SlotName(s)
	if !n.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown slot name %q", s)
	}
	return n, nil
}

// IsValid checks if the slot name is one of the supported enum values.
func (n SlotName) IsValid() bool {
	return validSlotNames[n]
}

// String returns the string representation of the slot name.
func (n SlotName) String() string {
	return string(n)
}
