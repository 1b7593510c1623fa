package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/scoring"
	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// Service defines the verification workflow exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, in models.SubmitInput) (*models.SubmitResult, error)
	Get(ctx context.Context, subID id.SubmissionID) (*models.Submission, error)
	Queue(ctx context.Context) ([]scoring.RankedSubmission, error)
	Approve(ctx context.Context, subID id.SubmissionID, note string, value *int) (*models.ReviewResult, error)
	Deny(ctx context.Context, subID id.SubmissionID, note string, value *int) (*models.ReviewResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the applicant endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/verification/submissions", h.HandleSubmit)
	r.Get("/verification/submissions/{id}", h.HandleGet)
}

// RegisterAdmin mounts the review endpoints. Mount it behind the admin
// middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verification/queue", h.HandleQueue)
	r.Post("/admin/verification/submissions/{id}/approve", h.HandleApprove)
	r.Post("/admin/verification/submissions/{id}/deny", h.HandleDeny)
}

// HandleSubmit handles POST /verification/submissions.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Submit(ctx, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSubmitResult(res))
}

// HandleGet handles GET /verification/submissions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	subID, err := id.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := h.service.Get(r.Context(), subID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubmission(sub))
}

// HandleQueue handles GET /admin/verification/queue.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ranked, err := h.service.Queue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "queue load failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRanked(ranked))
}

// HandleApprove handles POST /admin/verification/submissions/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, "approve", h.service.Approve)
}

// HandleDeny handles POST /admin/verification/submissions/{id}/deny.
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, "deny", h.service.Deny)
}

type reviewFunc func(ctx context.Context, subID id.SubmissionID, note string, value *int) (*models.ReviewResult, error)

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, decision string, review reviewFunc) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subID, err := id.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The body is optional.
	req := &ReviewRequest{}
	if r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
	}

	res, err := review(ctx, subID, req.Note, req.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "review failed",
			"request_id", requestID,
			"submission_id", subID,
			"decision", decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReviewResult(res))
}
