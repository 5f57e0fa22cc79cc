// Package service implements the participation registry: registration
// admission, withdrawal, and the participant approval workflow.
package service

import (
	"context"
	"errors"
	"log/slog"

	"rollcall/internal/activity/models"
	"rollcall/internal/audit"
	"rollcall/internal/notify"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/schedule"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// ActivityStore is the persistence surface the registry needs.
type ActivityStore interface {
	FindByID(ctx context.Context, activityID id.ActivityID) (*models.Activity, error)
	Execute(ctx context.Context, activityID id.ActivityID, validate func(*models.Activity) error, mutate func(*models.Activity)) (*models.Activity, error)
}

// ConflictChecker validates a candidate (day, slot) against the user's other
// live registrations.
type ConflictChecker interface {
	CheckOverlap(ctx context.Context, userID id.UserID, activityID id.ActivityID, day int, slot id.SlotName) (schedule.Result, error)
}

// EligibilityChecker is the membership collaborator boundary.
type EligibilityChecker interface {
	IsEligibleToRegister(ctx context.Context, userID id.UserID) (bool, error)
}

// AuditPublisher records registry decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates registration admission and the approval workflow.
type Service struct {
	activities ActivityStore
	conflicts  ConflictChecker
	membership EligibilityChecker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	notifier   notify.Publisher
	audit      AuditPublisher
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifier sets the notification publisher.
func WithNotifier(p notify.Publisher) Option {
	return func(s *Service) { s.notifier = p }
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs a Service.
func New(activities ActivityStore, conflicts ConflictChecker, membership EligibilityChecker, opts ...Option) *Service {
	s := &Service{
		activities: activities,
		conflicts:  conflicts,
		membership: membership,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register admits a new registration for the acting member. Preconditions
// are checked in order and fail fast: eligibility, activity exists, status
// admits registration, requested day slots resolve, not already registered,
// capacity, no schedule conflict. On success a pending registration is
// appended under the document lock, which re-validates the registered and
// capacity rules to close the concurrent-admission race.
func (s *Service) Register(ctx context.Context, activityID id.ActivityID, daySlots []models.DaySlot) (*models.Registration, error) {
	userID := requestcontext.ActorID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	eligible, err := s.membership.IsEligibleToRegister(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "membership check failed")
	}
	if !eligible {
		return nil, dErrors.New(dErrors.CodeForbidden, "membership does not allow registration")
	}

	a, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := a.CheckAdmission(now); err != nil {
		return nil, err
	}
	if err := a.ValidateDaySlots(daySlots); err != nil {
		return nil, err
	}
	if _, ok := a.RegistrationByUser(userID); ok {
		return nil, dErrors.New(dErrors.CodeConflict, "already registered for this activity")
	}
	if a.AtCapacity() {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "activity %q is full", a.Name)
	}

	if err := s.checkConflicts(ctx, a, userID, daySlots); err != nil {
		return nil, err
	}

	reg, err := models.NewRegistration(userID, daySlots, now)
	if err != nil {
		return nil, err
	}

	_, err = s.activities.Execute(ctx, activityID,
		func(a *models.Activity) error {
			if err := a.CheckAdmission(now); err != nil {
				return err
			}
			if _, ok := a.RegistrationByUser(userID); ok {
				return dErrors.New(dErrors.CodeConflict, "already registered for this activity")
			}
			if a.AtCapacity() {
				return dErrors.Newf(dErrors.CodeInvalidState, "activity %q is full", a.Name)
			}
			return nil
		},
		func(a *models.Activity) {
			a.Participants = append(a.Participants, *reg)
			a.UpdatedAt = now
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "already registered for this activity")
		}
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	if s.notifier != nil {
		s.notifier.Publish(ctx, notify.Event{
			Type:       notify.EventRegistrationCreated,
			OccurredAt: now,
			ActivityID: a.ID,
			UserID:     userID,
			Detail:     a.Name,
		})
	}
	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		ActorID:    userID,
		Subject:    userID.String(),
		Action:     audit.ActionRegistrationCreated,
		ActivityID: a.ID,
	})
	s.logger.InfoContext(ctx, "registration created",
		"activity_id", a.ID, "user_id", userID, "day_slots", len(daySlots))
	return reg, nil
}

// checkConflicts runs the detector for every requested (day, slot) pair. A
// single-day registration with no explicit slots covers all active slots of
// the day, so each of them is checked.
func (s *Service) checkConflicts(ctx context.Context, a *models.Activity, userID id.UserID, daySlots []models.DaySlot) error {
	candidates := daySlots
	if len(candidates) == 0 {
		for _, slot := range a.ActiveSlots() {
			candidates = append(candidates, models.DaySlot{DayNumber: 0, Slot: slot.Name})
		}
	}

	var hits []schedule.Hit
	for _, ds := range candidates {
		result, err := s.conflicts.CheckOverlap(ctx, userID, a.ID, ds.DayNumber, ds.Slot)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "conflict check failed")
		}
		hits = append(hits, result.Overlaps...)
	}
	if len(hits) == 0 {
		return nil
	}

	if s.metrics != nil {
		s.metrics.ScheduleConflicts.Inc()
	}
	first := hits[0]
	return dErrors.Newf(dErrors.CodeScheduleConflict,
		"schedule conflict with %q (%s on %s)",
		first.ActivityName, first.Slot, first.Date.Format("2006-01-02"),
	).WithDetails(hits)
}

// Withdraw hard-deletes the acting member's own live registration. Allowed
// any time before the activity completes.
func (s *Service) Withdraw(ctx context.Context, activityID id.ActivityID) error {
	userID := requestcontext.ActorID(ctx)
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	_, err := s.activities.Execute(ctx, activityID,
		func(a *models.Activity) error {
			if a.Status == models.StatusCompleted {
				return dErrors.New(dErrors.CodeInvalidState, "activity already completed")
			}
			if _, ok := a.RegistrationByUser(userID); !ok {
				return dErrors.New(dErrors.CodeNotFound, "no live registration for this activity")
			}
			return nil
		},
		func(a *models.Activity) {
			kept := a.Participants[:0]
			for _, p := range a.Participants {
				if p.UserID == userID && p.IsLive() {
					continue
				}
				kept = append(kept, p)
			}
			a.Participants = kept
			a.UpdatedAt = now
		},
	)
	if err != nil {
		return wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsWithdrawn.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		ActorID:    userID,
		Subject:    userID.String(),
		Action:     audit.ActionRegistrationWithdrawn,
		ActivityID: activityID,
	})
	return nil
}

// Decide applies an officer's approval decision to a member's registration.
// Every direction is reachable: a rejected registration may be re-approved
// and an approved one rejected. Approval clears the rejection triplet and
// vice versa.
func (s *Service) Decide(ctx context.Context, activityID id.ActivityID, userID id.UserID, decision id.Decision, reason string) (*models.Registration, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	var decided models.Registration
	_, err := s.activities.Execute(ctx, activityID,
		func(a *models.Activity) error {
			reg, ok := a.RegistrationForDecision(userID)
			if !ok {
				return dErrors.New(dErrors.CodeNotFound, "registration not found")
			}
			switch decision {
			case id.DecisionApprove:
				if err := reg.CanApprove(); err != nil {
					return dErrors.New(dErrors.CodeInvalidState, err.Error())
				}
			case id.DecisionReject:
				if err := reg.CanReject(); err != nil {
					return dErrors.New(dErrors.CodeInvalidState, err.Error())
				}
			default:
				return dErrors.Newf(dErrors.CodeInvalidInput, "unknown decision %q", decision)
			}
			return nil
		},
		func(a *models.Activity) {
			reg, _ := a.RegistrationForDecision(userID)
			switch decision {
			case id.DecisionApprove:
				reg.ApplyApproval(actor, now)
			case id.DecisionReject:
				reg.ApplyRejection(actor, now, reason)
			}
			a.UpdatedAt = now
			decided = *reg
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncApprovalDecision(decision.String())
	}
	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		ActorID:    actor,
		Subject:    userID.String(),
		Action:     audit.ActionRegistrationDecided,
		ActivityID: activityID,
		Decision:   decision.String(),
		Reason:     reason,
	})
	return &decided, nil
}

// Remove marks a member's live registration removed. The entry stays on the
// activity for audit and stops counting toward capacity and conflicts.
func (s *Service) Remove(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Registration, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	var removed models.Registration
	_, err := s.activities.Execute(ctx, activityID,
		func(a *models.Activity) error {
			reg, ok := a.RegistrationByUser(userID)
			if !ok {
				return dErrors.New(dErrors.CodeNotFound, "no live registration for this activity")
			}
			if err := reg.CanRemove(); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, err.Error())
			}
			return nil
		},
		func(a *models.Activity) {
			reg, _ := a.RegistrationByUser(userID)
			reg.ApplyRemoval()
			a.UpdatedAt = now
			removed = *reg
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &removed, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "activity not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "activity store failure")
	}
}
