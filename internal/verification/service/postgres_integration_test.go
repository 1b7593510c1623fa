//go:build integration

package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/passport"
	trustservice "trustgate/internal/trust/service"
	usermodels "trustgate/internal/users/models"
	userstore "trustgate/internal/users/store"
	"trustgate/internal/verification/models"
	"trustgate/internal/verification/service"
	"trustgate/internal/verification/store"
	dErrors "trustgate/pkg/domain-errors"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/audit/publisher"
	auditpostgres "trustgate/pkg/platform/audit/store/postgres"
	"trustgate/pkg/platform/tx"
	"trustgate/pkg/requestcontext"
	"trustgate/pkg/testutil/containers"
)

// failingAuditor appends to the real store but fails on one action.
type failingAuditor struct {
	next   *publisher.Publisher
	failOn audit.AuditEvent
}

func (f *failingAuditor) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == string(f.failOn) {
		return errors.New("audit store unavailable")
	}
	return f.next.Emit(ctx, event)
}

type ReviewTxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	users    *userstore.PostgresStore
	subs     *store.PostgresStore
	audit    *auditpostgres.Store
}

func TestReviewTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ReviewTxSuite))
}

func (s *ReviewTxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.users = userstore.NewPostgres(s.postgres.DB)
	s.subs = store.NewPostgres(s.postgres.DB)
	s.audit = auditpostgres.New(s.postgres.DB)
}

func (s *ReviewTxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events", "submissions", "users"))
}

func (s *ReviewTxSuite) newService(auditor service.AuditPublisher) *service.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewSQLRunner(s.postgres.DB, 5*time.Second)
	trust := trustservice.New(s.users,
		trustservice.WithLogger(logger),
		trustservice.WithAuditPublisher(auditor),
		trustservice.WithTx(runner),
	)
	return service.New(s.subs, s.users, trust, passport.NewIssuer("k", "trustgate", time.Hour),
		service.WithLogger(logger),
		service.WithAuditPublisher(auditor),
		service.WithTx(runner),
	)
}

func (s *ReviewTxSuite) submit(ctx context.Context, svc *service.Service) *models.SubmitResult {
	res, err := svc.Submit(ctx, models.SubmitInput{
		Name:        "Jane Smith",
		Email:       "jane@acme.com",
		Password:    "correct-horse-battery",
		GovID:       "1234",
		HasDocument: true,
	})
	s.Require().NoError(err)
	return res
}

func (s *ReviewTxSuite) TestApproveCommitsEverything() {
	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	svc := s.newService(publisher.NewPublisher(s.audit))
	res := s.submit(ctx, svc)

	out, err := svc.Approve(ctx, res.Submission.ID, "", nil)
	s.Require().NoError(err)
	s.NotNil(out.Passport)

	u, err := s.users.FindByID(ctx, res.User.ID)
	s.Require().NoError(err)
	s.Equal(usermodels.StatusApproved, u.Status)
	s.Equal(out.Adjustment.Score, u.TrustScore)

	events, err := s.audit.ListByUser(ctx, res.User.ID)
	s.Require().NoError(err)
	s.Len(events, 4)
}

func (s *ReviewTxSuite) TestFailedReviewRollsBackTrustAndStatus() {
	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	svc := s.newService(&failingAuditor{
		next:   publisher.NewPublisher(s.audit),
		failOn: audit.EventSubmissionDenied,
	})
	res := s.submit(ctx, svc)
	before := res.User.TrustScore

	_, err := svc.Deny(ctx, res.Submission.ID, "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	u, err := s.users.FindByID(ctx, res.User.ID)
	s.Require().NoError(err)
	s.Equal(before, u.TrustScore, "trust change rolled back")
	s.Equal(usermodels.StatusPending, u.Status)

	sub, err := s.subs.FindByID(ctx, res.Submission.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, sub.Status)

	events, err := s.audit.ListByUser(ctx, res.User.ID)
	s.Require().NoError(err)
	s.Len(events, 1, "only submission_created survives")
}
