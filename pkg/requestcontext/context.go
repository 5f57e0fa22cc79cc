// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	actor := requestcontext.ActorID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, actorID, "Jane Officer", "jane@club.test")
package requestcontext

import (
	"context"
	"time"

	id "rollcall/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	actorNameKey   struct{}
	actorEmailKey  struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorID retrieves the authenticated actor's user ID from the context.
// Returns the zero value if not set.
func ActorID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(actorIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// ActorName retrieves the authenticated actor's display name.
func ActorName(ctx context.Context) string {
	if v, ok := ctx.Value(actorNameKey{}).(string); ok {
		return v
	}
	return ""
}

// ActorEmail retrieves the authenticated actor's email.
func ActorEmail(ctx context.Context) string {
	if v, ok := ctx.Value(actorEmailKey{}).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the actor's identity into the context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithActor(ctx context.Context, actorID id.UserID, name, email string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey{}, actorID)
	ctx = context.WithValue(ctx, actorNameKey{}, name)
	return context.WithValue(ctx, actorEmailKey{}, email)
}

// Role retrieves the actor's role claim from the context.
func Role(ctx context.Context) string {
	if v, ok := ctx.Value(roleKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRole injects a role claim into the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so a whole request observes
// one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
