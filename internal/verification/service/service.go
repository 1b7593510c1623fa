// Package service runs the registration workflow: intake scores a submission
// once and stores the snapshot, the admin queue ranks pending submissions by
// their persisted scores, and a review settles the submission and the user's
// trust score in one unit of work.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trustgate/internal/passport"
	"trustgate/internal/scoring"
	trustmodels "trustgate/internal/trust/models"
	usermodels "trustgate/internal/users/models"
	vmetrics "trustgate/internal/verification/metrics"
	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/email"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/platform/tx"
	"trustgate/pkg/requestcontext"
)

type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, subID id.SubmissionID) (*models.Submission, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error)
	Execute(ctx context.Context, subID id.SubmissionID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error)
}

type UserStore interface {
	Create(ctx context.Context, user *usermodels.User) error
}

// TrustReviewer applies the trust side of a review to the user.
type TrustReviewer interface {
	ApplyReview(ctx context.Context, userID id.UserID, decision trustmodels.ReviewDecision, value *int) (*trustmodels.Adjustment, error)
}

type PassportIssuer interface {
	Issue(sub passport.Subject, now time.Time) (*passport.Token, error)
}

// EmailVerifier reports whether an address was confirmed with a code.
type EmailVerifier interface {
	IsVerified(ctx context.Context, address string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	submissions SubmissionStore
	users       UserStore
	trust       TrustReviewer
	passports   PassportIssuer
	verifier    EmailVerifier
	auditor     AuditPublisher
	logger      *slog.Logger
	metrics     *vmetrics.Metrics
	tracer      trace.Tracer
	tx          tx.Runner
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEmailVerifier marks submissions whose address was confirmed by code.
// Without one every submission is scored as unverified.
func WithEmailVerifier(v EmailVerifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(submissions SubmissionStore, users UserStore, trust TrustReviewer, passports PassportIssuer, opts ...Option) *Service {
	s := &Service{
		submissions: submissions,
		users:       users,
		trust:       trust,
		passports:   passports,
		logger:      slog.Default(),
		tracer:      otel.Tracer("trustgate/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	return s
}

// Submit scores a registration once and stores the pending user together
// with the submission snapshot. A second registration for the same email
// yields CodeConflict.
func (s *Service) Submit(ctx context.Context, in models.SubmitInput) (*models.SubmitResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	addr := email.Normalize(in.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	hash, err := usermodels.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	verified := false
	if s.verifier != nil {
		verified, err = s.verifier.IsVerified(ctx, addr)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email verification")
		}
	}

	now := requestcontext.Now(ctx)
	attrs := scoring.SubmissionAttributes{
		Name:          name,
		Email:         addr,
		Phone:         scoring.Optional(in.Phone),
		Organization:  scoring.Optional(in.Organization),
		GovID:         scoring.Optional(in.GovID),
		HasDocument:   in.HasDocument,
		EmailVerified: verified,
		License:       in.License,
		MFAVerified:   in.MFAVerified,
		CreatedAt:     now,
	}
	assessment := scoring.ScoreSubmission(attrs, now)

	user, err := usermodels.NewUser(id.NewUserID(), name, addr, hash, assessment.TrustScore, now)
	if err != nil {
		return nil, err
	}
	user.EmailVerified = verified
	user.MFAVerified = in.MFAVerified

	sub, err := models.NewSubmission(id.NewSubmissionID(), user.ID, attrs, assessment)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "email is already registered")
			}
			return s.wrapStoreErr(err, "failed to create user")
		}
		if err := s.submissions.Create(txCtx, sub); err != nil {
			return s.wrapStoreErr(err, "failed to create submission")
		}
		return s.emit(txCtx, audit.EventSubmissionCreated, sub, string(assessment.RiskLevel))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementSubmission(string(assessment.RiskLevel))
	s.logger.InfoContext(ctx, "submission received",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", sub.ID,
		"user_id", user.ID,
		"email", email.Mask(addr),
		"risk_score", assessment.RiskScore,
		"risk_level", assessment.RiskLevel,
		"trust_score", assessment.TrustScore,
	)
	return &models.SubmitResult{Submission: sub, User: user}, nil
}

func (s *Service) Get(ctx context.Context, subID id.SubmissionID) (*models.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, subID)
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to load submission")
	}
	return sub, nil
}

// Queue returns pending submissions, highest priority first. Risk and
// credibility are the persisted intake scores; urgency is evaluated at the
// request time so older submissions lose their recency bonus.
func (s *Service) Queue(ctx context.Context) ([]scoring.RankedSubmission, error) {
	ctx, span := s.tracer.Start(ctx, "verification.queue")
	defer span.End()

	start := time.Now()
	pending, err := s.submissions.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue load failed")
		return nil, s.wrapStoreErr(err, "failed to load review queue")
	}

	now := requestcontext.Now(ctx)
	ranked := make([]scoring.RankedSubmission, 0, len(pending))
	for _, sub := range pending {
		ranked = append(ranked, sub.Ranked(now))
	}
	scoring.OrderByPriority(ranked)

	s.metrics.ObserveQueue(len(ranked), start)
	span.SetAttributes(attribute.Int("queue.depth", len(ranked)))
	return ranked, nil
}

// Approve settles a pending submission, applies admin_approval to the user's
// trust score and issues a passport, all in one unit of work.
func (s *Service) Approve(ctx context.Context, subID id.SubmissionID, note string, value *int) (*models.ReviewResult, error) {
	return s.review(ctx, subID, trustmodels.DecisionApprove, note, value)
}

// Deny settles a pending submission and applies admin_denial.
func (s *Service) Deny(ctx context.Context, subID id.SubmissionID, note string, value *int) (*models.ReviewResult, error) {
	return s.review(ctx, subID, trustmodels.DecisionDeny, note, value)
}

func (s *Service) review(ctx context.Context, subID id.SubmissionID, decision trustmodels.ReviewDecision, note string, value *int) (*models.ReviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.review", trace.WithAttributes(
		attribute.String("review.decision", string(decision)),
		attribute.String("submission.id", subID.String()),
	))
	defer span.End()

	if subID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "submission id is required")
	}

	now := requestcontext.Now(ctx)
	reviewer := requestcontext.AdminID(ctx)
	status := models.StatusDenied
	event := audit.EventSubmissionDenied
	if decision == trustmodels.DecisionApprove {
		status = models.StatusApproved
		event = audit.EventSubmissionApproved
	}
	result := &models.ReviewResult{}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.submissions.FindByID(txCtx, subID)
		if err != nil {
			return s.wrapStoreErr(err, "failed to load submission")
		}
		if err := current.CanReview(); err != nil {
			return dErrors.New(dErrors.CodeConflict, err.Error())
		}

		adj, err := s.trust.ApplyReview(txCtx, current.UserID, decision, value)
		if err != nil {
			return err
		}
		result.Adjustment = adj

		sub, err := s.submissions.Execute(txCtx, subID,
			func(sub *models.Submission) error {
				if err := sub.CanReview(); err != nil {
					return dErrors.New(dErrors.CodeConflict, err.Error())
				}
				return nil
			},
			func(sub *models.Submission) {
				sub.ApplyReview(status, reviewer, strings.TrimSpace(note), now)
			},
		)
		if err != nil {
			return s.wrapStoreErr(err, "failed to record review")
		}
		result.Submission = sub

		if decision == trustmodels.DecisionApprove {
			token, err := s.passports.Issue(passport.Subject{
				UserID:       sub.UserID,
				SubmissionID: sub.ID,
				Name:         sub.Attributes.Name,
				Email:        sub.Attributes.Email,
				TrustScore:   adj.Score,
			}, now)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue passport")
			}
			result.Passport = token
			if err := s.emit(txCtx, audit.EventPassportIssued, sub, token.ID); err != nil {
				return err
			}
		}
		return s.emit(txCtx, event, sub, strings.TrimSpace(note))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review failed")
		return nil, err
	}

	s.metrics.IncrementReview(string(decision))
	s.logger.InfoContext(ctx, "submission reviewed",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", subID,
		"user_id", result.Submission.UserID,
		"decision", decision,
		"reviewer", reviewer,
		"trust_score", result.Adjustment.Score,
	)
	return result, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, sub *models.Submission, reason string) error {
	if s.auditor == nil {
		return nil
	}
	err := s.auditor.Emit(ctx, audit.Event{
		UserID:   sub.UserID,
		Action:   string(action),
		Subject:  sub.ID.String(),
		Decision: string(sub.Status),
		Reason:   reason,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) wrapStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "submission not found")
	}
	s.metrics.IncrementStorageFailure()
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
