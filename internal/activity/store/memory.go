// Package store persists activity documents. The in-memory implementation
// backs unit tests and local development; Postgres is the production store.
// Both guard the admission race on (activity, user): the memory store with
// its mutex, Postgres with a partial unique index over live registrations.
package store

import (
	"context"
	"sync"

	"rollcall/internal/activity/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemory keeps activity documents in a map. It favors clarity over
// performance and copies documents on the way in and out so callers never
// alias store-owned state.
type InMemory struct {
	mu         sync.RWMutex
	activities map[id.ActivityID]*models.Activity
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{activities: make(map[id.ActivityID]*models.Activity)}
}

// Create stores a new activity document.
func (s *InMemory) Create(_ context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.activities[a.ID] = cloneActivity(a)
	return nil
}

// FindByID returns a copy of the activity document.
func (s *InMemory) FindByID(_ context.Context, activityID id.ActivityID) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[activityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneActivity(a), nil
}

// FindByParticipant returns every activity where the user holds a
// registration in any status.
func (s *InMemory) FindByParticipant(_ context.Context, userID id.UserID) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Activity
	for _, a := range s.activities {
		for i := range a.Participants {
			if a.Participants[i].UserID == userID {
				out = append(out, cloneActivity(a))
				break
			}
		}
	}
	return out, nil
}

// Execute runs an atomic validate-then-mutate cycle against one activity
// document. The lock is held during both callbacks, which is what closes the
// concurrent-registration race window. Returns the updated document.
func (s *InMemory) Execute(_ context.Context, activityID id.ActivityID, validate func(*models.Activity) error, mutate func(*models.Activity)) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[activityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	work := cloneActivity(a)
	if validate != nil {
		if err := validate(work); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(work)
	}
	s.activities[activityID] = work
	return cloneActivity(work), nil
}

func cloneActivity(a *models.Activity) *models.Activity {
	clone := *a
	clone.Schedule = append([]models.ScheduleDay(nil), a.Schedule...)
	clone.TimeSlots = append([]models.TimeSlot(nil), a.TimeSlots...)
	if a.Participants != nil {
		clone.Participants = make([]models.Registration, len(a.Participants))
		for i := range a.Participants {
			clone.Participants[i] = cloneRegistration(&a.Participants[i])
		}
	}
	if a.MaxParticipants != nil {
		mp := *a.MaxParticipants
		clone.MaxParticipants = &mp
	}
	return &clone
}

func cloneRegistration(r *models.Registration) models.Registration {
	clone := *r
	clone.DaySlots = append([]models.DaySlot(nil), r.DaySlots...)
	if r.ApprovedBy != nil {
		v := *r.ApprovedBy
		clone.ApprovedBy = &v
	}
	if r.ApprovedAt != nil {
		v := *r.ApprovedAt
		clone.ApprovedAt = &v
	}
	if r.RejectedBy != nil {
		v := *r.RejectedBy
		clone.RejectedBy = &v
	}
	if r.RejectedAt != nil {
		v := *r.RejectedAt
		clone.RejectedAt = &v
	}
	return clone
}
