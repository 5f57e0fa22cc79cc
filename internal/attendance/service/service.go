// Package service orchestrates the attendance ledger: check-in capture and
// the verification workflow over recorded entries.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	activitymodels "rollcall/internal/activity/models"
	"rollcall/internal/attendance/models"
	"rollcall/internal/audit"
	"rollcall/internal/notify"
	"rollcall/internal/platform/metrics"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// LedgerStore is the persistence surface for attendance ledgers.
type LedgerStore interface {
	Create(ctx context.Context, l *models.Ledger) error
	FindByID(ctx context.Context, ledgerID id.LedgerID) (*models.Ledger, error)
	FindByActivityAndUser(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Ledger, error)
	FindByRecord(ctx context.Context, recordID id.RecordID) (*models.Ledger, error)
	FindByActivity(ctx context.Context, activityID id.ActivityID) ([]*models.Ledger, error)
	Execute(ctx context.Context, ledgerID id.LedgerID, validate func(*models.Ledger) error, mutate func(*models.Ledger)) (*models.Ledger, error)
}

// ActivityReader resolves the activity a check-in targets.
type ActivityReader interface {
	FindByID(ctx context.Context, activityID id.ActivityID) (*activitymodels.Activity, error)
}

// AuditPublisher records verification decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates attendance capture and verification.
type Service struct {
	ledgers    LedgerStore
	activities ActivityReader
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
func New(ledgers LedgerStore, activities ActivityReader, opts ...Option) *Service {
	s := &Service{ledgers: ledgers, activities: activities, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckInParams describes one check-in or check-out event.
type CheckInParams struct {
	ActivityID id.ActivityID
	DayNumber  int
	Slot       id.SlotName
	Type       models.CheckInType
	Location   models.Location
	PhotoURL   string
	LateReason string
}

// CheckIn appends a pending attendance entry to the acting member's ledger.
// The activity must be ongoing, the (day, slot) pair must resolve on its
// schedule, and the member must hold an approved registration covering that
// pair. The ledger is created lazily on the first check-in; when two first
// check-ins race, the loser reloads the winner's ledger and appends to it.
func (s *Service) CheckIn(ctx context.Context, p CheckInParams) (*models.Record, error) {
	userID := requestcontext.ActorID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	a, err := s.activities.FindByID(ctx, p.ActivityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "activity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "activity lookup failed")
	}
	if a.Status != activitymodels.StatusOngoing {
		return nil, dErrors.Newf(dErrors.CodeInvalidState,
			"activity %q is %s and does not accept check-ins", a.Name, a.Status)
	}

	day := p.DayNumber
	if a.Kind == activitymodels.KindSingleDay {
		day = 0
	}
	if _, ok := a.DateForDay(day); !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"day %d is not on the schedule of %q", p.DayNumber, a.Name)
	}
	if _, ok := a.SlotByName(p.Slot); !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"slot %s is not active on %q", p.Slot, a.Name)
	}

	reg, ok := a.RegistrationByUser(userID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "no registration for this activity")
	}
	if reg.Status != activitymodels.ApprovalApproved {
		return nil, dErrors.Newf(dErrors.CodeForbidden,
			"registration is %s, attendance requires approval", reg.Status)
	}
	if !coversDaySlot(a, reg, day, p.Slot) {
		return nil, dErrors.Newf(dErrors.CodeForbidden,
			"registration does not cover day %d slot %s", p.DayNumber, p.Slot)
	}

	ledger, err := s.findOrCreateLedger(ctx, a.ID, userID, now)
	if err != nil {
		return nil, err
	}

	rec, err := models.NewRecord(models.SlotLabel(day, p.Slot), p.Type, now, p.Location, p.PhotoURL, p.LateReason)
	if err != nil {
		return nil, err
	}

	_, err = s.ledgers.Execute(ctx, ledger.ID,
		func(l *models.Ledger) error {
			if l.HasEntry(rec.TimeSlot, rec.CheckInType) {
				return dErrors.Newf(dErrors.CodeConflict,
					"%s entry already recorded for %s", rec.CheckInType, rec.TimeSlot)
			}
			return nil
		},
		func(l *models.Ledger) {
			l.Entries = append(l.Entries, *rec)
			l.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}

	if s.metrics != nil {
		s.metrics.CheckInsRecorded.Inc()
	}
	s.logger.InfoContext(ctx, "check-in recorded",
		"activity_id", a.ID, "user_id", userID, "slot", rec.TimeSlot, "type", rec.CheckInType)
	return rec, nil
}

// coversDaySlot checks registration coverage for a resolved (day, slot) pair.
// Single-day registrations may pin slots under day 0 or day 1 depending on
// how the client numbered the only day, so both spellings count.
func coversDaySlot(a *activitymodels.Activity, reg *activitymodels.Registration, day int, slot id.SlotName) bool {
	if reg.CoversSlot(day, slot) {
		return true
	}
	if a.Kind == activitymodels.KindSingleDay {
		return reg.CoversSlot(1, slot) || reg.CoversSlot(0, slot)
	}
	return false
}

// findOrCreateLedger returns the member's ledger for the activity, creating
// it on the first check-in. Losing the creation race is fine: the winner's
// ledger is reloaded and used instead.
func (s *Service) findOrCreateLedger(ctx context.Context, activityID id.ActivityID, userID id.UserID, now time.Time) (*models.Ledger, error) {
	ledger, err := s.ledgers.FindByActivityAndUser(ctx, activityID, userID)
	if err == nil {
		return ledger, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger lookup failed")
	}

	student := models.StudentSnapshot{
		Name:  requestcontext.ActorName(ctx),
		Email: requestcontext.ActorEmail(ctx),
	}
	ledger, err = models.NewLedger(activityID, userID, student, now)
	if err != nil {
		return nil, err
	}
	if err := s.ledgers.Create(ctx, ledger); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			ledger, err = s.ledgers.FindByActivityAndUser(ctx, activityID, userID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger lookup failed")
			}
			return ledger, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger creation failed")
	}
	return ledger, nil
}

// Verify applies a verification decision to one attendance record. The
// verifier's identity is stamped on the record; re-applying the same decision
// refreshes the stamp, and either decision may overwrite the other.
func (s *Service) Verify(ctx context.Context, recordID id.RecordID, next models.VerificationStatus, note string) (*models.Record, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)
	verifier := models.Verifier{
		ID:    actor,
		Name:  requestcontext.ActorName(ctx),
		Email: requestcontext.ActorEmail(ctx),
	}

	ledger, err := s.ledgers.FindByRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attendance record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger lookup failed")
	}

	var verified models.Record
	updated, err := s.ledgers.Execute(ctx, ledger.ID,
		func(l *models.Ledger) error {
			rec, ok := l.RecordByID(recordID)
			if !ok {
				return dErrors.New(dErrors.CodeNotFound, "attendance record not found")
			}
			if err := rec.CanVerify(next); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, err.Error())
			}
			return nil
		},
		func(l *models.Ledger) {
			rec, _ := l.RecordByID(recordID)
			switch next {
			case models.VerificationApproved:
				rec.ApplyApproval(verifier, now, note)
			case models.VerificationRejected:
				rec.ApplyRejection(verifier, now, note)
			}
			l.UpdatedAt = now
			verified = *rec
		},
	)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncVerificationDecision(next.String())
	}
	if s.notifier != nil {
		s.notifier.Publish(ctx, notify.Event{
			Type:       notify.EventAttendanceVerified,
			OccurredAt: now,
			ActivityID: updated.ActivityID,
			UserID:     updated.UserID,
			Detail:     verified.TimeSlot,
		})
	}
	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		ActorID:    actor,
		Subject:    updated.UserID.String(),
		Action:     audit.ActionAttendanceVerified,
		ActivityID: updated.ActivityID,
		Decision:   next.String(),
		Reason:     note,
	})
	return &verified, nil
}

// Ledger returns the member's ledger for an activity.
func (s *Service) Ledger(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Ledger, error) {
	l, err := s.ledgers.FindByActivityAndUser(ctx, activityID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no attendance recorded for this activity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger lookup failed")
	}
	return l, nil
}

// PendingEntry pairs a pending record with the member it belongs to.
type PendingEntry struct {
	LedgerID id.LedgerID
	UserID   id.UserID
	Student  models.StudentSnapshot
	Record   models.Record
}

// ListPending returns every entry of an activity still awaiting verification.
func (s *Service) ListPending(ctx context.Context, activityID id.ActivityID) ([]PendingEntry, error) {
	ledgers, err := s.ledgers.FindByActivity(ctx, activityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger lookup failed")
	}
	var out []PendingEntry
	for _, l := range ledgers {
		for _, rec := range l.PendingEntries() {
			out = append(out, PendingEntry{
				LedgerID: l.ID,
				UserID:   l.UserID,
				Student:  l.Student,
				Record:   rec,
			})
		}
	}
	return out, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

func wrapLedgerErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "attendance ledger not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "attendance entry already recorded")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "attendance store failure")
	}
}
