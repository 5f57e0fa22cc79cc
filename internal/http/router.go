// Package httpapi assembles the HTTP surface: middleware chain, feature
// handlers, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/platform/middleware"
)

// Registrar mounts a feature's endpoints on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the public API. Every feature route sits behind request
// metadata and bearer authentication; /healthz and /metrics stay open for
// probes and scrapers.
func NewRouter(validator middleware.TokenValidator, logger *slog.Logger, features ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		for _, f := range features {
			f.Register(r)
		}
	})

	return r
}
