// Package notify publishes fire-and-forget domain events for the
// notification collaborator. Publish failures are logged and never roll back
// the core operation that produced the event.
package notify

import (
	"context"
	"time"

	id "rollcall/pkg/domain"
)

// Event types emitted by the core.
const (
	EventRegistrationCreated = "registration.created"
	EventActivityPublished   = "activity.published"
	EventAttendanceVerified  = "attendance.verified"
)

// Event is one notification payload. Keep it transport-agnostic so
// publishers can fan out.
type Event struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	ActivityID id.ActivityID `json:"activity_id,omitempty"`
	UserID     id.UserID     `json:"user_id,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// Publisher delivers events to the notification collaborator.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}
