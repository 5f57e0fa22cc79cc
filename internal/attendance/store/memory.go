// Package store persists attendance ledgers. Exactly one ledger exists per
// (activity, user) pair: the in-memory store enforces it under its mutex,
// Postgres with a composite unique index.
package store

import (
	"context"
	"sync"

	"rollcall/internal/attendance/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type ledgerKey struct {
	activity id.ActivityID
	user     id.UserID
}

// InMemory keeps ledgers in maps and copies documents on the way in and out.
type InMemory struct {
	mu      sync.RWMutex
	ledgers map[id.LedgerID]*models.Ledger
	byPair  map[ledgerKey]id.LedgerID
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		ledgers: make(map[id.LedgerID]*models.Ledger),
		byPair:  make(map[ledgerKey]id.LedgerID),
	}
}

// Create stores a new ledger, rejecting a second ledger for the same
// (activity, user) pair.
func (s *InMemory) Create(_ context.Context, l *models.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerKey{activity: l.ActivityID, user: l.UserID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	s.ledgers[l.ID] = cloneLedger(l)
	s.byPair[key] = l.ID
	return nil
}

// FindByID loads one ledger.
func (s *InMemory) FindByID(_ context.Context, ledgerID id.LedgerID) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneLedger(l), nil
}

// FindByActivityAndUser loads the unique ledger for a pair.
func (s *InMemory) FindByActivityAndUser(_ context.Context, activityID id.ActivityID, userID id.UserID) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledgerID, ok := s.byPair[ledgerKey{activity: activityID, user: userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneLedger(s.ledgers[ledgerID]), nil
}

// FindByRecord locates the ledger containing a record.
func (s *InMemory) FindByRecord(_ context.Context, recordID id.RecordID) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.ledgers {
		if _, ok := l.RecordByID(recordID); ok {
			return cloneLedger(l), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByActivity returns every ledger of one activity.
func (s *InMemory) FindByActivity(_ context.Context, activityID id.ActivityID) ([]*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ledger
	for _, l := range s.ledgers {
		if l.ActivityID == activityID {
			out = append(out, cloneLedger(l))
		}
	}
	return out, nil
}

// Execute runs an atomic validate-then-mutate cycle against one ledger. The
// lock is held during both callbacks, serializing concurrent verification
// decisions per record.
func (s *InMemory) Execute(_ context.Context, ledgerID id.LedgerID, validate func(*models.Ledger) error, mutate func(*models.Ledger)) (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	work := cloneLedger(l)
	if validate != nil {
		if err := validate(work); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(work)
	}
	s.ledgers[ledgerID] = work
	return cloneLedger(work), nil
}

func cloneLedger(l *models.Ledger) *models.Ledger {
	clone := *l
	if l.Entries != nil {
		clone.Entries = make([]models.Record, len(l.Entries))
		for i := range l.Entries {
			clone.Entries[i] = cloneRecord(&l.Entries[i])
		}
	}
	return &clone
}

func cloneRecord(r *models.Record) models.Record {
	clone := *r
	if r.VerifiedBy != nil {
		v := *r.VerifiedBy
		clone.VerifiedBy = &v
	}
	if r.VerifiedAt != nil {
		v := *r.VerifiedAt
		clone.VerifiedAt = &v
	}
	return clone
}
