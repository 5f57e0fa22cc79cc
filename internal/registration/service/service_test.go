package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rollcall/internal/activity/models"
	"rollcall/internal/registration/service/mocks"
	"rollcall/internal/schedule"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ctrl            *gomock.Controller
	mockStore       *mocks.MockActivityStore
	mockConflicts   *mocks.MockConflictChecker
	mockEligibility *mocks.MockEligibilityChecker
	service         *Service

	now    time.Time
	userID id.UserID
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockActivityStore(s.ctrl)
	s.mockConflicts = mocks.NewMockConflictChecker(s.ctrl)
	s.mockEligibility = mocks.NewMockEligibilityChecker(s.ctrl)
	s.service = New(s.mockStore, s.mockConflicts, s.mockEligibility)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.userID = id.NewUserID()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// memberCtx is an authenticated member request context pinned to s.now.
func (s *ServiceSuite) memberCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), s.userID, "Jane Member", "jane@club.test")
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ServiceSuite) publishedActivity(maxParticipants *int) *models.Activity {
	slot, err := models.NewTimeSlot(id.SlotMorning, "08:00", "11:00", true)
	s.Require().NoError(err)
	a, err := models.NewSingleDay(id.NewActivityID(), "Beach Cleanup",
		s.now.AddDate(0, 0, 7), []models.TimeSlot{slot}, maxParticipants, s.now)
	s.Require().NoError(err)
	a.Status = models.StatusPublished
	return a
}

func (s *ServiceSuite) publishedMultiDay() *models.Activity {
	slot, err := models.NewTimeSlot(id.SlotMorning, "08:00", "11:00", true)
	s.Require().NoError(err)
	a, err := models.NewMultiDay(id.NewActivityID(), "Leadership Camp",
		[]models.ScheduleDay{
			{DayNumber: 1, Date: s.now.AddDate(0, 0, 7)},
			{DayNumber: 2, Date: s.now.AddDate(0, 0, 8)},
		}, []models.TimeSlot{slot}, nil, s.now)
	s.Require().NoError(err)
	a.Status = models.StatusPublished
	return a
}

// expectExecute routes the store's Execute through the given document so the
// service's validate and mutate callbacks actually run.
func (s *ServiceSuite) expectExecute(a *models.Activity) {
	s.mockStore.EXPECT().
		Execute(gomock.Any(), a.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.ActivityID, validate func(*models.Activity) error, mutate func(*models.Activity)) (*models.Activity, error) {
			if validate != nil {
				if err := validate(a); err != nil {
					return nil, err
				}
			}
			if mutate != nil {
				mutate(a)
			}
			return a, nil
		})
}

func (s *ServiceSuite) TestRegister() {
	s.Run("happy path appends a pending registration", func() {
		a := s.publishedActivity(nil)
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		s.mockConflicts.EXPECT().
			CheckOverlap(gomock.Any(), s.userID, a.ID, 0, id.SlotMorning).
			Return(schedule.Result{}, nil)
		s.expectExecute(a)

		reg, err := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().NoError(err)
		s.Equal(models.ApprovalPending, reg.Status)
		s.Require().Len(a.Participants, 1)
		s.Equal(s.userID, a.Participants[0].UserID)
	})

	s.Run("unauthenticated caller is rejected", func() {
		_, err := s.service.Register(context.Background(), id.NewActivityID(), nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("ineligible member is refused before any store read", func() {
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(false, nil)

		_, err := s.service.Register(s.memberCtx(), id.NewActivityID(), nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("draft activity rejects admission", func() {
		a := s.publishedActivity(nil)
		a.Status = models.StatusDraft
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)

		_, err := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("live registration blocks a duplicate", func() {
		a := s.publishedActivity(nil)
		reg, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *reg)

		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)

		_, rerr := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().Error(rerr)
		s.True(dErrors.HasCode(rerr, dErrors.CodeConflict))
	})

	s.Run("rejected member may register again", func() {
		a := s.publishedActivity(nil)
		old, err := models.NewRegistration(s.userID, nil, s.now.Add(-time.Hour))
		s.Require().NoError(err)
		old.Status = models.ApprovalRejected
		a.Participants = append(a.Participants, *old)

		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		s.mockConflicts.EXPECT().
			CheckOverlap(gomock.Any(), s.userID, a.ID, 0, id.SlotMorning).
			Return(schedule.Result{}, nil)
		s.expectExecute(a)

		reg, rerr := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().NoError(rerr)
		s.Equal(models.ApprovalPending, reg.Status)
		s.Len(a.Participants, 2, "the rejected entry is retained for audit")
	})

	s.Run("full activity refuses admission", func() {
		seats := 1
		a := s.publishedActivity(&seats)
		other, err := models.NewRegistration(id.NewUserID(), nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *other)

		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)

		_, rerr := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().Error(rerr)
		s.True(dErrors.HasCode(rerr, dErrors.CodeInvalidState))
	})

	s.Run("schedule conflict blocks admission with an explanation", func() {
		a := s.publishedActivity(nil)
		hit := schedule.Hit{
			ActivityID:   id.NewActivityID(),
			ActivityName: "Trail Day",
			Slot:         id.SlotMorning,
			Date:         s.now.AddDate(0, 0, 7),
		}
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		s.mockConflicts.EXPECT().
			CheckOverlap(gomock.Any(), s.userID, a.ID, 0, id.SlotMorning).
			Return(schedule.Result{HasOverlap: true, Overlaps: []schedule.Hit{hit}}, nil)

		_, err := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeScheduleConflict))

		hits, ok := dErrors.DetailsOf(err).([]schedule.Hit)
		s.Require().True(ok)
		s.Require().Len(hits, 1)
		s.Equal("Trail Day", hits[0].ActivityName)
	})

	s.Run("multi-day registration without day slots is refused", func() {
		a := s.publishedMultiDay()
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)

		// An unpinned multi-day registration would resolve to no day at all
		// and dodge the conflict check from both sides, so it never reaches
		// the detector or the store.
		_, err := s.service.Register(s.memberCtx(), a.ID, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("multi-day registration pinned to a day is admitted", func() {
		a := s.publishedMultiDay()
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		s.mockConflicts.EXPECT().
			CheckOverlap(gomock.Any(), s.userID, a.ID, 2, id.SlotMorning).
			Return(schedule.Result{}, nil)
		s.expectExecute(a)

		reg, err := s.service.Register(s.memberCtx(), a.ID,
			[]models.DaySlot{{DayNumber: 2, Slot: id.SlotMorning}})
		s.Require().NoError(err)
		s.Equal(models.ApprovalPending, reg.Status)
	})

	s.Run("invalid day slot fails before the conflict check", func() {
		a := s.publishedActivity(nil)
		s.mockEligibility.EXPECT().IsEligibleToRegister(gomock.Any(), s.userID).Return(true, nil)
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)

		_, err := s.service.Register(s.memberCtx(), a.ID,
			[]models.DaySlot{{DayNumber: 1, Slot: id.SlotEvening}})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestWithdraw() {
	s.Run("hard-deletes the live registration", func() {
		a := s.publishedActivity(nil)
		reg, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *reg)
		s.expectExecute(a)

		s.Require().NoError(s.service.Withdraw(s.memberCtx(), a.ID))
		s.Empty(a.Participants)
	})

	s.Run("keeps other members' registrations", func() {
		a := s.publishedActivity(nil)
		mine, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		theirs, err := models.NewRegistration(id.NewUserID(), nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *mine, *theirs)
		s.expectExecute(a)

		s.Require().NoError(s.service.Withdraw(s.memberCtx(), a.ID))
		s.Require().Len(a.Participants, 1)
		s.Equal(theirs.ID, a.Participants[0].ID)
	})

	s.Run("completed activity refuses withdrawal", func() {
		a := s.publishedActivity(nil)
		a.Status = models.StatusCompleted
		reg, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *reg)
		s.expectExecute(a)

		werr := s.service.Withdraw(s.memberCtx(), a.ID)
		s.Require().Error(werr)
		s.True(dErrors.HasCode(werr, dErrors.CodeInvalidState))
	})

	s.Run("no live registration returns not found", func() {
		a := s.publishedActivity(nil)
		s.expectExecute(a)

		err := s.service.Withdraw(s.memberCtx(), a.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDecide() {
	officer := id.NewUserID()
	officerCtx := func() context.Context {
		ctx := requestcontext.WithActor(context.Background(), officer, "Ann Officer", "ann@club.test")
		return requestcontext.WithTime(ctx, s.now)
	}

	s.Run("approval stamps the officer", func() {
		a := s.publishedActivity(nil)
		reg, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *reg)
		s.expectExecute(a)

		decided, derr := s.service.Decide(officerCtx(), a.ID, s.userID, id.DecisionApprove, "")
		s.Require().NoError(derr)
		s.Equal(models.ApprovalApproved, decided.Status)
		s.Require().NotNil(decided.ApprovedBy)
		s.Equal(officer, *decided.ApprovedBy)
	})

	s.Run("rejection then re-approval works in both directions", func() {
		a := s.publishedActivity(nil)
		reg, err := models.NewRegistration(s.userID, nil, s.now)
		s.Require().NoError(err)
		a.Participants = append(a.Participants, *reg)

		s.expectExecute(a)
		decided, derr := s.service.Decide(officerCtx(), a.ID, s.userID, id.DecisionReject, "roster full")
		s.Require().NoError(derr)
		s.Equal(models.ApprovalRejected, decided.Status)
		s.Equal("roster full", decided.RejectionReason)

		s.expectExecute(a)
		decided, derr = s.service.Decide(officerCtx(), a.ID, s.userID, id.DecisionApprove, "")
		s.Require().NoError(derr)
		s.Equal(models.ApprovalApproved, decided.Status)
		s.Empty(decided.RejectionReason)
		s.Nil(decided.RejectedBy)
	})

	s.Run("unknown member returns not found", func() {
		a := s.publishedActivity(nil)
		s.expectExecute(a)

		_, err := s.service.Decide(officerCtx(), a.ID, id.NewUserID(), id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRemove() {
	officer := id.NewUserID()
	ctx := requestcontext.WithTime(
		requestcontext.WithActor(context.Background(), officer, "Ann Officer", "ann@club.test"), s.now)

	a := s.publishedActivity(nil)
	reg, err := models.NewRegistration(s.userID, nil, s.now)
	s.Require().NoError(err)
	a.Participants = append(a.Participants, *reg)
	s.expectExecute(a)

	removed, rerr := s.service.Remove(ctx, a.ID, s.userID)
	s.Require().NoError(rerr)
	s.Equal(models.ApprovalRemoved, removed.Status)
	s.Len(a.Participants, 1, "the removed entry stays on the document")
}
