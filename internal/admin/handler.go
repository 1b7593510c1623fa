// Package admin serves operator read views that span modules.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// AuditLister reads a user's audit trail, oldest first.
type AuditLister interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

// Handler serves the admin audit endpoints. Mount it behind the admin
// middleware.
type Handler struct {
	audit  AuditLister
	logger *slog.Logger
}

func New(lister AuditLister, logger *slog.Logger) *Handler {
	return &Handler{audit: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit/{user_id}", h.HandleAuditTrail)
}

// HandleAuditTrail handles GET /admin/audit/{user_id}. An optional
// ?category= narrows the trail to compliance, security or operations events.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	category, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.audit.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail"))
		return
	}
	if category != "" {
		var filtered []audit.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(userID.String(), events))
}

func parseCategory(raw string) (audit.EventCategory, error) {
	switch c := audit.EventCategory(raw); c {
	case "", audit.CategoryCompliance, audit.CategorySecurity, audit.CategoryOperations:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "category must be compliance, security or operations")
	}
}
