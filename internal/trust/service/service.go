// Package service owns every mutation of a user's persisted trust score.
//
// A mutation is one locked read-modify-write through UserStore.Execute: the
// store holds a per-user lock (memory) or a row lock (Postgres) across reading
// the score, computing the delta, clamping, and writing it back. Storage
// failures surface as CodeInternal and never as not-found.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trustgate/internal/scoring"
	trustmetrics "trustgate/internal/trust/metrics"
	"trustgate/internal/trust/models"
	usermodels "trustgate/internal/users/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/platform/tx"
	"trustgate/pkg/requestcontext"
)

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	ListByStatus(ctx context.Context, status usermodels.Status) ([]*usermodels.User, error)
	Execute(ctx context.Context, userID id.UserID, validate func(*usermodels.User) error, mutate func(*usermodels.User)) (*usermodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	users   UserStore
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *trustmetrics.Metrics
	tracer  trace.Tracer
	tx      tx.Runner
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

func WithMetrics(m *trustmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx runs each mutation and its audit event as one unit of work.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		logger: slog.Default(),
		tracer: otel.Tracer("trustgate/trust"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.Direct{}
	}
	return s
}

// UpdateScore applies action to the user's trust score and returns the
// result. value overrides the action's default magnitude; it must not be
// negative and is ignored by time_based.
func (s *Service) UpdateScore(ctx context.Context, userID id.UserID, action scoring.Action, value *int) (*models.Adjustment, error) {
	if _, err := scoring.ParseAction(string(action)); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return s.mutate(ctx, userID, action, value,
		func(*usermodels.User) error { return nil },
		func(*usermodels.User, time.Time) {},
	)
}

// ApplyReview records an admin verdict on a pending user and applies the
// matching trust action in the same locked write. A user that has already
// been reviewed yields CodeConflict and nothing changes.
func (s *Service) ApplyReview(ctx context.Context, userID id.UserID, decision models.ReviewDecision, value *int) (*models.Adjustment, error) {
	return s.mutate(ctx, userID, decision.Action(), value,
		func(u *usermodels.User) error {
			if err := u.CanReview(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "user has already been reviewed")
			}
			return nil
		},
		func(u *usermodels.User, now time.Time) {
			if decision == models.DecisionApprove {
				u.ApplyApproval(now)
			} else {
				u.ApplyDenial(now)
			}
		},
	)
}

// Standing returns the user's score, derived tier and its permissions.
func (s *Service) Standing(ctx context.Context, userID id.UserID) (*models.Standing, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to load user")
	}
	tier := u.Tier()
	return &models.Standing{
		UserID:      u.ID,
		Status:      string(u.Status),
		Score:       u.TrustScore,
		Tier:        tier,
		Permissions: scoring.PermissionsFor(tier),
	}, nil
}

func (s *Service) mutate(
	ctx context.Context,
	userID id.UserID,
	action scoring.Action,
	value *int,
	check func(*usermodels.User) error,
	transition func(*usermodels.User, time.Time),
) (*models.Adjustment, error) {
	ctx, span := s.tracer.Start(ctx, "trust.mutate", trace.WithAttributes(
		attribute.String("trust.action", string(action)),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	start := time.Now()
	now := requestcontext.Now(ctx)
	var adj models.Adjustment

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.users.Execute(txCtx, userID,
			func(u *usermodels.User) error {
				if err := check(u); err != nil {
					return err
				}
				// Age is measured from the verification time as it stood
				// before this mutation.
				delta, err := scoring.TrustDelta(action, value, u.VerifiedAt, now)
				if err != nil {
					return dErrors.New(dErrors.CodeValidation, err.Error())
				}
				adj = models.Adjustment{UserID: u.ID, Action: action, Previous: u.TrustScore, Delta: delta}
				return nil
			},
			func(u *usermodels.User) {
				transition(u, now)
				adj.Score = u.ApplyTrustDelta(adj.Delta, now)
				adj.Tier = u.Tier()
			},
		)
		if err != nil {
			return s.wrapStoreErr(err, "failed to update trust score")
		}
		return s.emit(txCtx, adj)
	})
	s.metrics.ObserveAdjust(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trust mutation failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("trust.score", adj.Score))
	s.metrics.IncrementAdjustment(string(action), adj.Clamped())

	s.logger.InfoContext(ctx, "trust score updated",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"action", action,
		"previous", adj.Previous,
		"delta", adj.Delta,
		"score", adj.Score,
	)
	return &adj, nil
}

func (s *Service) emit(ctx context.Context, adj models.Adjustment) error {
	if s.auditor == nil {
		return nil
	}
	action := audit.EventTrustAdjusted
	if adj.Action == scoring.ActionTimeBased {
		action = audit.EventTrustAged
	}
	err := s.auditor.Emit(ctx, audit.Event{
		UserID:   adj.UserID,
		Action:   string(action),
		Subject:  string(adj.Action),
		Decision: fmt.Sprintf("%d->%d", adj.Previous, adj.Score),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record trust audit event")
	}
	return nil
}

// wrapStoreErr keeps coded errors, maps a missing user to CodeNotFound and
// everything else to CodeInternal.
func (s *Service) wrapStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
	}
	s.metrics.IncrementStorageFailure()
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
