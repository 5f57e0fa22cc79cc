package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rollcall/internal/activity/models"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/registration/handler/mocks"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/testutil"
)

type RegistrationHandlerSuite struct {
	suite.Suite

	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router

	now        time.Time
	activityID id.ActivityID
	userID     id.UserID
}

func (s *RegistrationHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.mockService, logger).Register(s.router)

	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.activityID = id.NewActivityID()
	s.userID = id.NewUserID()
}

func (s *RegistrationHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRegistrationHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrationHandlerSuite))
}

func (s *RegistrationHandlerSuite) pendingRegistration() *models.Registration {
	reg, err := models.NewRegistration(s.userID, nil, s.now)
	s.Require().NoError(err)
	return reg
}

func (s *RegistrationHandlerSuite) TestHandleRegister() {
	s.Run("returns the created registration", func() {
		reg := s.pendingRegistration()
		s.mockService.EXPECT().
			Register(gomock.Any(), s.activityID, []models.DaySlot{{DayNumber: 2, Slot: id.SlotMorning}}).
			Return(reg, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/activities/"+s.activityID.String()+"/registrations",
			RegisterRequest{DaySlots: []DaySlotInput{{DayNumber: 2, Slot: "Morning"}}})
		req = testutil.WithActor(req, s.userID, "Jane Member", "jane@club.test")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[RegistrationResponse](s.T(), rr)
		s.Equal(reg.ID.String(), resp.ID)
		s.Equal("pending", resp.Status)
	})

	s.Run("empty body registers for all slots", func() {
		reg := s.pendingRegistration()
		s.mockService.EXPECT().
			Register(gomock.Any(), s.activityID, gomock.Nil()).
			Return(reg, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/activities/"+s.activityID.String()+"/registrations", RegisterRequest{})
		req = testutil.WithActor(req, s.userID, "Jane Member", "jane@club.test")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("rejects an unknown slot name before reaching the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/activities/"+s.activityID.String()+"/registrations",
			RegisterRequest{DaySlots: []DaySlotInput{{DayNumber: 1, Slot: "Midnight"}}})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "invalid_input")
	})

	s.Run("renders a schedule conflict with details", func() {
		s.mockService.EXPECT().
			Register(gomock.Any(), s.activityID, gomock.Nil()).
			Return(nil, dErrors.New(dErrors.CodeScheduleConflict, `schedule conflict with "Trail Day"`))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/activities/"+s.activityID.String()+"/registrations", RegisterRequest{})
		req = testutil.WithActor(req, s.userID, "Jane Member", "jane@club.test")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "schedule_conflict")
	})

	s.Run("rejects a malformed activity id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/activities/not-a-uuid/registrations", RegisterRequest{})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *RegistrationHandlerSuite) TestHandleWithdraw() {
	s.mockService.EXPECT().Withdraw(gomock.Any(), s.activityID).Return(nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodDelete,
		"/activities/"+s.activityID.String()+"/registrations/me", nil)
	req = testutil.WithActor(req, s.userID, "Jane Member", "jane@club.test")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *RegistrationHandlerSuite) TestHandleDecide() {
	path := "/activities/" + s.activityID.String() + "/registrations/" + s.userID.String() + "/decision"

	s.Run("officer approves", func() {
		reg := s.pendingRegistration()
		officer := id.NewUserID()
		reg.ApplyApproval(officer, s.now)
		s.mockService.EXPECT().
			Decide(gomock.Any(), s.activityID, s.userID, id.DecisionApprove, "").
			Return(reg, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			DecisionRequest{Decision: "approve"})
		req = testutil.WithRole(req, middleware.RoleOfficer)

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[RegistrationResponse](s.T(), rr)
		s.Equal("approved", resp.Status)
		s.Require().NotNil(resp.ApprovedBy)
		s.Equal(officer.String(), *resp.ApprovedBy)
	})

	s.Run("rejection without a reason is refused", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			DecisionRequest{Decision: "reject"})
		req = testutil.WithRole(req, middleware.RoleOfficer)

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "invalid_input")
	})

	s.Run("member role is forbidden", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			DecisionRequest{Decision: "approve"})
		req = testutil.WithRole(req, middleware.RoleMember)

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		testutil.AssertErrorCode(s.T(), rr, "forbidden")
	})

	s.Run("missing role is unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			DecisionRequest{Decision: "approve"})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *RegistrationHandlerSuite) TestHandleRemove() {
	reg := s.pendingRegistration()
	reg.ApplyRemoval()
	s.mockService.EXPECT().
		Remove(gomock.Any(), s.activityID, s.userID).
		Return(reg, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodDelete,
		"/activities/"+s.activityID.String()+"/registrations/"+s.userID.String(), nil)
	req = testutil.WithRole(req, middleware.RoleOfficer)

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[RegistrationResponse](s.T(), rr)
	s.Equal("removed", resp.Status)
}
