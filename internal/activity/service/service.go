// Package service orchestrates the activity catalog: creation and the
// lifecycle transitions that gate registration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rollcall/internal/activity/models"
	"rollcall/internal/audit"
	"rollcall/internal/notify"
	"rollcall/internal/platform/metrics"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// ActivityStore is the persistence surface the catalog service needs.
type ActivityStore interface {
	Create(ctx context.Context, a *models.Activity) error
	FindByID(ctx context.Context, activityID id.ActivityID) (*models.Activity, error)
	Execute(ctx context.Context, activityID id.ActivityID, validate func(*models.Activity) error, mutate func(*models.Activity)) (*models.Activity, error)
}

// AuditPublisher records catalog decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates catalog management.
type Service struct {
	activities ActivityStore
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
func New(activities ActivityStore, opts ...Option) *Service {
	s := &Service{activities: activities, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams describes a new activity.
type CreateParams struct {
	Name            string
	Kind            models.Kind
	Date            time.Time
	Schedule        []models.ScheduleDay
	Slots           []models.TimeSlot
	MaxParticipants *int
}

// Create stores a new draft activity.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Activity, error) {
	now := requestcontext.Now(ctx)
	var (
		a   *models.Activity
		err error
	)
	switch p.Kind {
	case models.KindSingleDay:
		a, err = models.NewSingleDay(id.NewActivityID(), p.Name, p.Date, p.Slots, p.MaxParticipants, now)
	case models.KindMultiDay:
		a, err = models.NewMultiDay(id.NewActivityID(), p.Name, p.Schedule, p.Slots, p.MaxParticipants, now)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown activity kind %q", p.Kind)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		return nil, err
	}

	if err := s.activities.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create activity")
	}
	s.logger.InfoContext(ctx, "activity created",
		"activity_id", a.ID, "kind", a.Kind, "name", a.Name)
	return a, nil
}

// Get fetches one activity.
func (s *Service) Get(ctx context.Context, activityID id.ActivityID) (*models.Activity, error) {
	a, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	return a, nil
}

// Transition moves an activity along its lifecycle. Publishing emits a
// notification event for the collaborator; delivery failures never roll the
// transition back.
func (s *Service) Transition(ctx context.Context, activityID id.ActivityID, next models.Status) (*models.Activity, error) {
	now := requestcontext.Now(ctx)
	a, err := s.activities.Execute(ctx, activityID,
		func(a *models.Activity) error {
			if err := a.CanTransitionTo(next); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, err.Error())
			}
			return nil
		},
		func(a *models.Activity) {
			a.ApplyTransition(next, now)
		},
	)
	if err != nil {
		return nil, wrapActivityErr(err)
	}

	if next == models.StatusPublished {
		if s.metrics != nil {
			s.metrics.ActivitiesPublished.Inc()
		}
		if s.notifier != nil {
			s.notifier.Publish(ctx, notify.Event{
				Type:       notify.EventActivityPublished,
				OccurredAt: now,
				ActivityID: a.ID,
				Detail:     a.Name,
			})
		}
	}
	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		ActorID:    requestcontext.ActorID(ctx),
		Subject:    a.Name,
		Action:     audit.ActionActivityTransitioned,
		ActivityID: a.ID,
		Decision:   next.String(),
	})
	return a, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

func wrapActivityErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "activity not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "activity store failure")
	}
}
