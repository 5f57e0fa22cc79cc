//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/activity/models"
	"rollcall/internal/activity/store"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.Migrate(s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order
	err := s.postgres.TruncateTables(context.Background(), "activity_participants", "activities")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newActivity(name string) *models.Activity {
	slot, err := models.NewTimeSlot(id.SlotMorning, "08:00", "11:00", true)
	s.Require().NoError(err)
	a, err := models.NewSingleDay(id.NewActivityID(), name,
		s.now.AddDate(0, 0, 7), []models.TimeSlot{slot}, nil, s.now)
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	a := s.newActivity("Trail Day")
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal("Trail Day", found.Name)

	_, err = s.store.FindByID(ctx, id.NewActivityID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()

	a := s.newActivity("Atomic")
	s.Require().NoError(s.store.Create(ctx, a))

	userID := id.NewUserID()
	reg, err := models.NewRegistration(userID, nil, s.now)
	s.Require().NoError(err)

	_, err = s.store.Execute(ctx, a.ID, nil, func(a *models.Activity) {
		a.Participants = append(a.Participants, *reg)
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(found.Participants, 1)
	s.Equal(userID, found.Participants[0].UserID)
}

func (s *PostgresStoreSuite) TestFindByParticipant() {
	ctx := context.Background()
	userID := id.NewUserID()

	mine := s.newActivity("Mine")
	reg, err := models.NewRegistration(userID, nil, s.now)
	s.Require().NoError(err)
	reg.Status = models.ApprovalRejected
	mine.Participants = append(mine.Participants, *reg)
	s.Require().NoError(s.store.Create(ctx, mine))
	// Create does not write index rows; Execute syncs them.
	_, err = s.store.Execute(ctx, mine.ID, nil, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Create(ctx, s.newActivity("Theirs")))

	found, err := s.store.FindByParticipant(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(mine.ID, found[0].ID)
}

// The partial unique index over live registrations is the backstop against a
// duplicate slipping past the in-document validation.
func (s *PostgresStoreSuite) TestLiveRegistrationUniqueIndex() {
	ctx := context.Background()
	userID := id.NewUserID()

	a := s.newActivity("Guarded")
	s.Require().NoError(s.store.Create(ctx, a))

	first, err := models.NewRegistration(userID, nil, s.now)
	s.Require().NoError(err)
	_, err = s.store.Execute(ctx, a.ID, nil, func(a *models.Activity) {
		a.Participants = append(a.Participants, *first)
	})
	s.Require().NoError(err)

	second, err := models.NewRegistration(userID, nil, s.now)
	s.Require().NoError(err)
	_, err = s.store.Execute(ctx, a.ID, nil, func(a *models.Activity) {
		a.Participants = append(a.Participants, *second)
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Run("a rejected entry frees the slot", func() {
		_, err := s.store.Execute(ctx, a.ID, nil, func(a *models.Activity) {
			a.Participants[0].Status = models.ApprovalRejected
			fresh, ferr := models.NewRegistration(userID, nil, s.now)
			s.Require().NoError(ferr)
			a.Participants = append(a.Participants, *fresh)
		})
		s.Require().NoError(err)
	})
}
