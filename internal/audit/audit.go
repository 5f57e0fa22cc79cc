// Package audit captures who decided what, and why, across the approval and
// verification workflows. The trail is append-only.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	id "rollcall/pkg/domain"
)

// Actions recorded by the core workflows.
const (
	ActionRegistrationCreated   = "registration.created"
	ActionRegistrationWithdrawn = "registration.withdrawn"
	ActionRegistrationDecided   = "registration.decided"
	ActionAttendanceVerified    = "attendance.verified"
	ActionActivityTransitioned  = "activity.transitioned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	ActorID    id.UserID
	Subject    string
	Action     string
	ActivityID id.ActivityID
	Decision   string
	Reason     string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActivity(ctx context.Context, activityID id.ActivityID) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

// NewPublisher constructs a Publisher.
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit appends one event, defaulting the timestamp.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// List returns the trail for one activity.
func (p *Publisher) List(ctx context.Context, activityID id.ActivityID) ([]Event, error) {
	return p.store.ListByActivity(ctx, activityID)
}

// ChannelPublisher hands events to a Worker through a buffered channel,
// keeping persistence off the request path. When the buffer is full the event
// is dropped rather than blocking the request.
type ChannelPublisher struct {
	inbox chan<- Event
}

// NewChannelPublisher constructs a ChannelPublisher feeding inbox.
func NewChannelPublisher(inbox chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

// Emit enqueues one event, defaulting the timestamp.
func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrTrailFull
	}
}

// ErrTrailFull reports a saturated audit inbox. Callers log and move on; the
// business operation is never rolled back over a lost trail entry.
var ErrTrailFull = errors.New("audit trail inbox is full")

// InMemoryStore keeps the trail in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ActivityID][]Event
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ActivityID][]Event)}
}

// Append stores one event.
func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ActivityID] = append(s.events[event.ActivityID], event)
	return nil
}

// ListByActivity returns a copy of the activity's trail.
func (s *InMemoryStore) ListByActivity(_ context.Context, activityID id.ActivityID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[activityID]...), nil
}
