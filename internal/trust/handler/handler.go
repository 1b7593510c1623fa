package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/scoring"
	"trustgate/internal/trust/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// Service defines the trust operations exposed over HTTP.
type Service interface {
	UpdateScore(ctx context.Context, userID id.UserID, action scoring.Action, value *int) (*models.Adjustment, error)
	Standing(ctx context.Context, userID id.UserID) (*models.Standing, error)
}

// Handler serves the admin trust endpoints. Mount it behind the admin
// middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/trust/{user_id}/adjust", h.HandleAdjust)
	r.Get("/admin/trust/{user_id}", h.HandleStanding)
}

// HandleAdjust handles POST /admin/trust/{user_id}/adjust.
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AdjustRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adj, err := h.service.UpdateScore(ctx, userID, req.ParsedAction(), req.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "trust adjustment failed",
			"request_id", requestID,
			"user_id", userID,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAdjustment(adj))
}

// HandleStanding handles GET /admin/trust/{user_id}.
func (h *Handler) HandleStanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	st, err := h.service.Standing(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStanding(st))
}
