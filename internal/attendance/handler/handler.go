// Package handler wires the attendance endpoints to the attendance service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/attendance/models"
	"rollcall/internal/attendance/service"
	"rollcall/internal/platform/middleware"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// Service defines the attendance operations the handler needs.
type Service interface {
	CheckIn(ctx context.Context, p service.CheckInParams) (*models.Record, error)
	Verify(ctx context.Context, recordID id.RecordID, next models.VerificationStatus, note string) (*models.Record, error)
	Ledger(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Ledger, error)
	ListPending(ctx context.Context, activityID id.ActivityID) ([]service.PendingEntry, error)
}

// Handler wires attendance endpoints to the attendance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an attendance handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts attendance endpoints on the router. Members check in and
// read their own ledger; verification and cross-member reads are
// officer-only.
func (h *Handler) Register(r chi.Router) {
	officer := middleware.RequireRole(middleware.RoleOfficer, h.logger)
	r.Route("/activities/{activityID}/attendance", func(r chi.Router) {
		r.Post("/check-ins", h.HandleCheckIn)
		r.Get("/me", h.HandleOwnLedger)
		r.With(officer).Get("/pending", h.HandleListPending)
		r.With(officer).Get("/{userID}", h.HandleLedger)
	})
	r.With(officer).Post("/attendance/records/{recordID}/verification", h.HandleVerify)
}

// HandleCheckIn handles POST /activities/{activityID}/attendance/check-ins.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req CheckInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.CheckIn(ctx, req.Params(activityID))
	if err != nil {
		h.logger.WarnContext(ctx, "check-in refused",
			"request_id", requestcontext.RequestID(ctx),
			"activity_id", activityID,
			"slot", req.Slot,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleVerify handles POST /attendance/records/{recordID}/verification.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Verify(ctx, recordID, req.ParsedStatus(), req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleOwnLedger handles GET /activities/{activityID}/attendance/me.
func (h *Handler) HandleOwnLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID := requestcontext.ActorID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	ledger, err := h.service.Ledger(ctx, activityID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLedger(ledger))
}

// HandleLedger handles GET /activities/{activityID}/attendance/{userID}.
func (h *Handler) HandleLedger(w http.ResponseWriter, r *http.Request) {
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

	ledger, err := h.service.Ledger(ctx, activityID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLedger(ledger))
}

// HandleListPending handles GET /activities/{activityID}/attendance/pending.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.ListPending(ctx, activityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPendingEntries(entries))
}
