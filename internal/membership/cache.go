package membership

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "rollcall/pkg/domain"
)

// CachedChecker memoizes eligibility answers in Redis. The membership
// collaborator is an external call on the admission path; a short TTL keeps
// stale answers bounded while sparing the collaborator one round-trip per
// registration attempt.
//
// Cache failures degrade to the underlying checker: a Redis outage must
// never block registration.
type CachedChecker struct {
	next   Checker
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedChecker wraps next with a Redis cache.
func NewCachedChecker(next Checker, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedChecker{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(userID id.UserID) string {
	return "rollcall:eligibility:" + userID.String()
}

// IsEligibleToRegister consults the cache first, then the collaborator.
func (c *CachedChecker) IsEligibleToRegister(ctx context.Context, userID id.UserID) (bool, error) {
	key := cacheKey(userID)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case err != redis.Nil:
		c.logger.WarnContext(ctx, "eligibility cache read failed", "error", err)
	}

	eligible, err := c.next.IsEligibleToRegister(ctx, userID)
	if err != nil {
		return false, err
	}

	val := "0"
	if eligible {
		val = "1"
	}
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "eligibility cache write failed", "error", err)
	}
	return eligible, nil
}
