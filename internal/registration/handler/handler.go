// Package handler wires the registration endpoints to the registry service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/activity/models"
	"rollcall/internal/platform/middleware"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, activityID id.ActivityID, daySlots []models.DaySlot) (*models.Registration, error)
	Withdraw(ctx context.Context, activityID id.ActivityID) error
	Decide(ctx context.Context, activityID id.ActivityID, userID id.UserID, decision id.Decision, reason string) (*models.Registration, error)
	Remove(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Registration, error)
}

// Handler wires registration endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registration endpoints on the router. Members register and
// withdraw themselves; decision and removal are officer-only.
func (h *Handler) Register(r chi.Router) {
	officer := middleware.RequireRole(middleware.RoleOfficer, h.logger)
	r.Route("/activities/{activityID}/registrations", func(r chi.Router) {
		r.Post("/", h.HandleRegister)
		r.Delete("/me", h.HandleWithdraw)
		r.With(officer).Post("/{userID}/decision", h.HandleDecide)
		r.With(officer).Delete("/{userID}", h.HandleRemove)
	})
}

// HandleRegister handles POST /activities/{activityID}/registrations.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Register(ctx, activityID, req.ParsedDaySlots())
	if err != nil {
		h.logger.WarnContext(ctx, "registration refused",
			"request_id", requestcontext.RequestID(ctx),
			"activity_id", activityID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(reg))
}

// HandleWithdraw handles DELETE /activities/{activityID}/registrations/me.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Withdraw(ctx, activityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleDecide handles POST
// /activities/{activityID}/registrations/{userID}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req DecisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Decide(ctx, activityID, userID, req.ParsedDecision(), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "registration decision failed",
			"request_id", requestcontext.RequestID(ctx),
			"activity_id", activityID,
			"subject", userID,
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleRemove handles DELETE /activities/{activityID}/registrations/{userID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Remove(ctx, activityID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}
