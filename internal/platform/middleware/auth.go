package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// TokenValidator validates bearer tokens and returns the actor claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ActorClaims, error)
}

// ActorClaims is the identity the auth middleware trusts. Role checks on
// verification and approval endpoints build on the Role claim; the identity
// collaborator is responsible for issuing it correctly.
type ActorClaims struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// Roles recognized by the role guard.
const (
	RoleMember  = "member"
	RoleOfficer = "officer"
)

// RequireAuth validates the bearer token and injects the actor into the
// request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			actorID, err := parseActorID(claims.UserID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}
			ctx = requestcontext.WithActor(ctx, actorID, claims.Name, claims.Email)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards officer-only endpoints. It assumes RequireAuth already
// ran; an empty role is treated as unauthenticated.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actual := requestcontext.Role(ctx)
			if actual == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if actual != role {
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"required", role,
					"actual", actual,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "%s role required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
