// Package handler wires the activity catalog endpoints to the catalog
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/activity/models"
	"rollcall/internal/activity/service"
	"rollcall/internal/platform/middleware"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	Create(ctx context.Context, p service.CreateParams) (*models.Activity, error)
	Get(ctx context.Context, activityID id.ActivityID) (*models.Activity, error)
	Transition(ctx context.Context, activityID id.ActivityID, next models.Status) (*models.Activity, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router. Creation and lifecycle
// transitions are officer-only; reads are open to any authenticated actor.
func (h *Handler) Register(r chi.Router) {
	officer := middleware.RequireRole(middleware.RoleOfficer, h.logger)
	r.Route("/activities", func(r chi.Router) {
		r.With(officer).Post("/", h.HandleCreate)
		r.Get("/{activityID}", h.HandleGet)
		r.With(officer).Post("/{activityID}/status", h.HandleTransition)
	})
}

// HandleCreate handles POST /activities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateActivityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Create(ctx, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "activity creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"name", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromActivity(a))
}

// HandleGet handles GET /activities/{activityID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Get(ctx, activityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromActivity(a))
}

// HandleTransition handles POST /activities/{activityID}/status.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Transition(ctx, activityID, req.ParsedStatus())
	if err != nil {
		h.logger.ErrorContext(ctx, "activity transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"activity_id", activityID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromActivity(a))
}
