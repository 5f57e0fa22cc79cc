package testutil

import (
	"net/http"
	"time"

	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
)

// WithActor stamps an authenticated actor onto the request context, the way
// the auth middleware would after validating a token.
func WithActor(req *http.Request, userID id.UserID, name, email string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), userID, name, email)
	return req.WithContext(ctx)
}

// WithRole adds a role claim to the request context.
func WithRole(req *http.Request, role string) *http.Request {
	return req.WithContext(requestcontext.WithRole(req.Context(), role))
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
