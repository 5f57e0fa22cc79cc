//go:build integration

package membership_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/membership"
	id "rollcall/pkg/domain"
	"rollcall/pkg/testutil/containers"
)

// countingChecker records how often the collaborator is consulted.
type countingChecker struct {
	calls    atomic.Int32
	eligible bool
}

func (c *countingChecker) IsEligibleToRegister(context.Context, id.UserID) (bool, error) {
	c.calls.Add(1)
	return c.eligible, nil
}

type CachedCheckerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	logger *slog.Logger
}

func TestCachedCheckerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedCheckerSuite))
}

func (s *CachedCheckerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *CachedCheckerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CachedCheckerSuite) TestCachesCollaboratorAnswer() {
	ctx := context.Background()
	next := &countingChecker{eligible: true}
	checker := membership.NewCachedChecker(next, s.redis.Client, time.Minute, s.logger)
	userID := id.NewUserID()

	for range 5 {
		eligible, err := checker.IsEligibleToRegister(ctx, userID)
		s.Require().NoError(err)
		s.True(eligible)
	}
	s.Equal(int32(1), next.calls.Load(), "only the first check reaches the collaborator")
}

func (s *CachedCheckerSuite) TestNegativeAnswersAreCachedToo() {
	ctx := context.Background()
	next := &countingChecker{eligible: false}
	checker := membership.NewCachedChecker(next, s.redis.Client, time.Minute, s.logger)
	userID := id.NewUserID()

	for range 3 {
		eligible, err := checker.IsEligibleToRegister(ctx, userID)
		s.Require().NoError(err)
		s.False(eligible)
	}
	s.Equal(int32(1), next.calls.Load())
}

func (s *CachedCheckerSuite) TestEntriesExpire() {
	ctx := context.Background()
	next := &countingChecker{eligible: true}
	checker := membership.NewCachedChecker(next, s.redis.Client, 50*time.Millisecond, s.logger)
	userID := id.NewUserID()

	_, err := checker.IsEligibleToRegister(ctx, userID)
	s.Require().NoError(err)

	time.Sleep(100 * time.Millisecond)

	_, err = checker.IsEligibleToRegister(ctx, userID)
	s.Require().NoError(err)
	s.Equal(int32(2), next.calls.Load(), "expired entry re-consults the collaborator")
}

func (s *CachedCheckerSuite) TestUsersAreCachedIndependently() {
	ctx := context.Background()
	next := &countingChecker{eligible: true}
	checker := membership.NewCachedChecker(next, s.redis.Client, time.Minute, s.logger)

	_, err := checker.IsEligibleToRegister(ctx, id.NewUserID())
	s.Require().NoError(err)
	_, err = checker.IsEligibleToRegister(ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Equal(int32(2), next.calls.Load())
}
