// Package schedule implements scheduling-conflict detection over the activity
// catalog and participation registry. Overlap is a normal, expected outcome:
// CheckOverlap communicates it in the result, never as an error.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/activity/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Source supplies the catalog reads the detector needs. Each check is
// snapshot-consistent at the granularity of a single call.
type Source interface {
	FindByID(ctx context.Context, activityID id.ActivityID) (*models.Activity, error)
	// FindByParticipant returns every activity where the user holds a
	// registration in any status.
	FindByParticipant(ctx context.Context, userID id.UserID) ([]*models.Activity, error)
}

// Hit describes one conflicting live registration with enough context for the
// caller to render a human-readable explanation.
type Hit struct {
	ActivityID   id.ActivityID `json:"activity_id"`
	ActivityName string        `json:"activity_name"`
	// DayNumber is 0 for single-day activities.
	DayNumber int         `json:"day_number,omitempty"`
	Slot      id.SlotName `json:"slot"`
	Date      time.Time   `json:"date"`
	StartTime string      `json:"start_time,omitempty"`
	EndTime   string      `json:"end_time,omitempty"`
}

// Result is the outcome of a conflict check.
type Result struct {
	HasOverlap bool  `json:"has_overlap"`
	Overlaps   []Hit `json:"overlaps"`
}

// Detector performs conflict checks against a catalog source.
type Detector struct {
	source Source
	logger *slog.Logger
}

// NewDetector constructs a Detector.
func NewDetector(source Source, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{source: source, logger: logger}
}

// CheckOverlap determines whether the candidate (activity, day, slot)
// overlaps any of the user's other live registrations in real calendar time.
//
// Rejected and removed registrations never contribute: conflicts are only
// meaningful for registrations that could still consume the user's time.
func (d *Detector) CheckOverlap(ctx context.Context, userID id.UserID, activityID id.ActivityID, day int, slot id.SlotName) (Result, error) {
	if userID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if !slot.IsValid() {
		return Result{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown slot name %q", slot)
	}

	var (
		candidate *models.Activity
		others    []*models.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := d.source.FindByID(gctx, activityID)
		if err != nil {
			return err
		}
		candidate = a
		return nil
	})
	g.Go(func() error {
		as, err := d.source.FindByParticipant(gctx, userID)
		if err != nil {
			return err
		}
		others = as
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	candDate, ok := candidate.DateForDay(day)
	if !ok {
		// Unresolvable candidate day: skip date-based comparisons rather
		// than failing the whole check. Every match requires date equality,
		// so the result is empty.
		d.logger.WarnContext(ctx, "conflict check with unresolvable candidate day",
			"activity_id", activityID, "day", day)
		return Result{}, nil
	}
	candSlot, candSlotOK := candidate.SlotByName(slot)

	var hits []Hit
	for _, other := range others {
		if other.ID == candidate.ID {
			continue
		}
		reg, ok := other.RegistrationByUser(userID)
		if !ok {
			continue
		}
		if hit, found := d.matchActivity(candidate, candSlot, candSlotOK, candDate, slot, other, reg); found {
			hits = append(hits, hit)
		}
	}
	return Result{HasOverlap: len(hits) > 0, Overlaps: hits}, nil
}

// matchActivity reports the first conflicting occurrence on one other
// activity. One hit per conflicting activity is enough to block admission
// and keeps the explanation free of duplicate days.
func (d *Detector) matchActivity(candidate *models.Activity, candSlot models.TimeSlot, candSlotOK bool, candDate time.Time, slot id.SlotName, other *models.Activity, reg *models.Registration) (Hit, bool) {
	if other.Kind == models.KindMultiDay {
		for _, ds := range reg.DaySlots {
			if ds.Slot != slot {
				continue
			}
			otherDate, ok := other.DateForDay(ds.DayNumber)
			if !ok {
				continue
			}
			if !models.SameCalendarDay(candDate, otherDate) {
				continue
			}
			// Same slot name on the same calendar day. Between two
			// multi-day activities the shared slot-name convention
			// denotes the same wall-clock window; when the candidate is
			// single-day its own definition may differ, so fall back to
			// the minute-interval test when both sides are resolvable.
			if candidate.Kind == models.KindSingleDay {
				if otherSlot, ok := other.SlotByName(slot); ok && candSlotOK {
					if !windowsOverlap(candSlot, otherSlot) {
						continue
					}
				}
			}
			otherSlot, _ := other.SlotByName(slot)
			return Hit{
				ActivityID:   other.ID,
				ActivityName: other.Name,
				DayNumber:    ds.DayNumber,
				Slot:         slot,
				Date:         otherDate,
				StartTime:    otherSlot.StartTime,
				EndTime:      otherSlot.EndTime,
			}, true
		}
		return Hit{}, false
	}

	// Other is single-day.
	if !models.SameCalendarDay(candDate, other.Date) {
		return Hit{}, false
	}
	if !coversSlotName(reg, slot) {
		return Hit{}, false
	}
	otherSlot, otherSlotOK := other.SlotByName(slot)
	if candSlotOK && otherSlotOK {
		if !windowsOverlap(candSlot, otherSlot) {
			return Hit{}, false
		}
	}
	// Missing slot definitions degrade to "overlap when dates and slot name
	// match": forcing a member to notice a false positive is safer than
	// silently double-booking them.
	return Hit{
		ActivityID:   other.ID,
		ActivityName: other.Name,
		Slot:         slot,
		Date:         other.Date,
		StartTime:    otherSlot.StartTime,
		EndTime:      otherSlot.EndTime,
	}, true
}

// coversSlotName reports whether a registration includes the slot name on any
// day. An empty day-slot list means "all active slots of the day" (single-day
// backward compatibility).
func coversSlotName(reg *models.Registration, slot id.SlotName) bool {
	if len(reg.DaySlots) == 0 {
		return true
	}
	for _, ds := range reg.DaySlots {
		if ds.Slot == slot {
			return true
		}
	}
	return false
}

// windowsOverlap performs the half-open interval test in minutes since
// midnight: overlap unless one window ends before the other starts. Malformed
// stored times degrade to "overlap" (conservative).
func windowsOverlap(a, b models.TimeSlot) bool {
	aStart, aEnd, err := a.Window()
	if err != nil {
		return true
	}
	bStart, bEnd, err := b.Window()
	if err != nil {
		return true
	}
	return !(aEnd <= bStart || aStart >= bEnd)
}
