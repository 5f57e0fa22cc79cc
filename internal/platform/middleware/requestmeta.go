package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
)

func parseActorID(s string) (id.UserID, error) {
	return id.ParseUserID(s)
}

// RequestID assigns each request an ID (reusing the caller's X-Request-ID if
// present) and echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime pins one timestamp for the whole request so every audit stamp
// written during it agrees.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
