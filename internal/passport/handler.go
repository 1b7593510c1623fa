package passport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler serves GET /passport/verify for the portal.
type Handler struct {
	issuer  *Issuer
	auditor AuditPublisher
	logger  *slog.Logger
}

func NewHandler(issuer *Issuer, auditor AuditPublisher, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, auditor: auditor, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/passport/verify", h.HandleVerify)
}

type VerifyResponse struct {
	Valid        bool   `json:"valid"`
	UserID       string `json:"user_id"`
	SubmissionID string `json:"submission_id"`
	Name         string `json:"name"`
	Tier         int    `json:"tier"`
	TrustScore   int    `json:"trust_score"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := h.issuer.Validate(BearerToken(r.Header.Get("Authorization")), requestcontext.Now(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "passport rejected",
			"request_id", requestcontext.RequestID(ctx),
			"client_ip", requestcontext.ClientIP(ctx),
			"error", err,
		)
		if h.auditor != nil {
			_ = h.auditor.Emit(ctx, audit.Event{
				Action: string(audit.EventPassportRejected),
				Reason: err.Error(),
			})
		}
		httputil.WriteError(w, err)
		return
	}

	resp := VerifyResponse{
		Valid:        true,
		UserID:       claims.UserID,
		SubmissionID: claims.SubmissionID,
		Name:         claims.Name,
		Tier:         claims.Tier,
		TrustScore:   claims.TrustScore,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
