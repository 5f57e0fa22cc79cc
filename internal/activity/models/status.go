package models

import dErrors "rollcall/pkg/domain-errors"

// Status is the lifecycle state of an activity.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusPostponed Status = "postponed"
)

// statusTransitions is the single source of truth for legal lifecycle moves.
// Completed and Cancelled are terminal.
var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusCancelled},
	StatusPublished: {StatusOngoing, StatusCancelled, StatusPostponed},
	StatusOngoing:   {StatusCompleted, StatusCancelled},
	StatusPostponed: {StatusPublished, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusTransitions[st]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown activity status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AdmitsRegistration reports whether the status allows new registrations.
// Draft, Completed, Cancelled and Postponed activities reject admission.
func (s Status) AdmitsRegistration() bool {
	return s == StatusPublished || s == StatusOngoing
}

// String returns the string representation of the status.
func (s Status) String() string { return string(s) }
