package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustgate/internal/passport"
	"trustgate/internal/scoring"
	trustservice "trustgate/internal/trust/service"
	usermodels "trustgate/internal/users/models"
	userstore "trustgate/internal/users/store"
	vmetrics "trustgate/internal/verification/metrics"
	"trustgate/internal/verification/models"
	"trustgate/internal/verification/service/mocks"
	"trustgate/internal/verification/store"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/audit/publisher"
	auditmemory "trustgate/pkg/platform/audit/store/memory"
	"trustgate/pkg/platform/tx"
	"trustgate/pkg/requestcontext"
	"trustgate/pkg/testutil"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks TrustReviewer,AuditPublisher

var evalTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type verifiedSet map[string]bool

func (v verifiedSet) IsVerified(_ context.Context, address string) (bool, error) {
	return v[address], nil
}

func janeSmith(addr string) models.SubmitInput {
	return models.SubmitInput{
		Name:         "Jane Smith",
		Email:        addr,
		Password:     "correct-horse-battery",
		Phone:        "555-123-4567",
		Organization: "Acme Corp",
		GovID:        "1234",
		HasDocument:  true,
	}
}

func riskyApplicant(addr string) models.SubmitInput {
	return models.SubmitInput{
		Name:     "zzzzz",
		Email:    addr,
		Password: "password123",
		Phone:    "1",
	}
}

type VerificationServiceSuite struct {
	suite.Suite
	ctx         context.Context
	users       *userstore.InMemory
	submissions *store.InMemory
	audit       *auditmemory.InMemoryStore
	issuer      *passport.Issuer
	service     *Service
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithAdminID(requestcontext.WithTime(context.Background(), evalTime), "ops@example.com")
	s.users = userstore.NewInMemory()
	s.submissions = store.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.issuer = passport.NewIssuer("test-key", "trustgate", 24*time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := publisher.NewPublisher(s.audit)
	runner := tx.NewMemoryRunner()
	trust := trustservice.New(s.users,
		trustservice.WithLogger(logger),
		trustservice.WithAuditPublisher(auditor),
		trustservice.WithTx(runner),
	)
	s.service = New(s.submissions, s.users, trust, s.issuer,
		WithLogger(logger),
		WithAuditPublisher(auditor),
		WithMetrics(vmetrics.NewWithRegistry(prometheus.NewRegistry())),
		WithEmailVerifier(verifiedSet{"jane@acme.com": true}),
		WithTx(runner),
	)
}

func (s *VerificationServiceSuite) submit(in models.SubmitInput) *models.SubmitResult {
	res, err := s.service.Submit(s.ctx, in)
	s.Require().NoError(err)
	return res
}

func (s *VerificationServiceSuite) user(userID id.UserID) *usermodels.User {
	u, err := s.users.FindByID(s.ctx, userID)
	s.Require().NoError(err)
	return u
}

func (s *VerificationServiceSuite) actions(userID id.UserID) []string {
	events, err := s.audit.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	var out []string
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *VerificationServiceSuite) TestSubmit() {
	s.Run("scores once and stores the snapshot", func() {
		res := s.submit(janeSmith("Jane@Acme.com"))

		sub := res.Submission
		s.Equal(models.StatusPending, sub.Status)
		s.Equal("jane@acme.com", sub.Attributes.Email)
		s.True(sub.Attributes.EmailVerified, "address confirmed by code")
		s.Equal(scoring.ScoreSubmission(sub.Attributes, evalTime), sub.Assessment)
		s.Equal(0, sub.Assessment.RiskScore)
		s.Equal(100, sub.Assessment.Credibility)
		s.Equal(90, sub.Assessment.TrustScore)

		u := s.user(res.User.ID)
		s.Equal(usermodels.StatusPending, u.Status)
		s.Equal(90, u.TrustScore)
		s.True(u.EmailVerified)
		s.True(usermodels.CheckPassword(u.PasswordHash, "correct-horse-battery"))

		stored, err := s.service.Get(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal(sub.Assessment, stored.Assessment)
		s.Equal([]string{string(audit.EventSubmissionCreated)}, s.actions(u.ID))
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.Submit(s.ctx, janeSmith("JANE@acme.com"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unverified address scores without the bonus", func() {
		res := s.submit(janeSmith("other@acme.com"))
		s.False(res.Submission.Attributes.EmailVerified)
		s.Equal(0, res.Submission.Assessment.RiskFactors.CompanyEmailVerified)
	})

	s.Run("rejects malformed input", func() {
		in := janeSmith("new@acme.com")
		in.Name = "  "
		_, err := s.service.Submit(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		in = janeSmith("not-an-email")
		_, err = s.service.Submit(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		in = janeSmith("new@acme.com")
		in.Password = "short"
		_, err = s.service.Submit(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VerificationServiceSuite) TestQueue() {
	clean := s.submit(janeSmith("jane@acme.com"))
	risky := s.submit(riskyApplicant("z@tempmail.com"))

	s.Equal(scoring.RiskHigh, risky.Submission.Assessment.RiskLevel)
	s.Equal(100, risky.Submission.Assessment.Urgency)
	s.Equal(35, risky.Submission.Assessment.Credibility)

	queue, err := s.service.Queue(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(risky.Submission.ID.String(), queue[0].ID)
	s.Equal(clean.Submission.ID.String(), queue[1].ID)
	s.InDelta(86.0, queue[0].Priority, 1e-9)

	s.Run("urgency is evaluated at read time", func() {
		later := requestcontext.WithTime(s.ctx, evalTime.Add(72*time.Hour))
		again, err := s.service.Queue(later)
		s.Require().NoError(err)
		s.Require().Len(again, 2)
		s.Equal(risky.Submission.ID.String(), again[0].ID)
		s.Equal(70, again[0].Urgency)
		s.Equal(35, again[0].Credibility)
		s.InDelta(68.0, again[0].Priority, 1e-9)
	})

	s.Run("reviewed submissions leave the queue", func() {
		_, err := s.service.Deny(s.ctx, risky.Submission.ID, "", nil)
		s.Require().NoError(err)

		queue, err := s.service.Queue(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(queue, 1)
		s.Equal(clean.Submission.ID.String(), queue[0].ID)
	})
}

func (s *VerificationServiceSuite) TestQueueRanksNewerSubmissionFirst() {
	olderCtx := requestcontext.WithTime(s.ctx, evalTime.Add(-72*time.Hour))
	older, err := s.service.Submit(olderCtx, janeSmith("old@acme.com"))
	s.Require().NoError(err)
	newerCtx := requestcontext.WithTime(s.ctx, evalTime.Add(-10*time.Minute))
	newer, err := s.service.Submit(newerCtx, janeSmith("new@acme.com"))
	s.Require().NoError(err)

	s.Equal(older.Submission.Assessment, newer.Submission.Assessment, "identical applicants score the same at intake")

	queue, err := s.service.Queue(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(newer.Submission.ID.String(), queue[0].ID)
	s.Equal(older.Submission.ID.String(), queue[1].ID)
	s.Equal(30, queue[0].Urgency)
	s.Equal(0, queue[1].Urgency)
	s.Greater(queue[0].Priority, queue[1].Priority)
}

func (s *VerificationServiceSuite) TestApprove() {
	res := s.submit(janeSmith("jane@acme.com"))

	out, err := s.service.Approve(s.ctx, res.Submission.ID, " looks good ", nil)
	s.Require().NoError(err)

	s.Equal(models.StatusApproved, out.Submission.Status)
	s.Equal("ops@example.com", out.Submission.ReviewedBy)
	s.Equal("looks good", out.Submission.ReviewNote)
	s.Require().NotNil(out.Submission.ReviewedAt)
	s.Equal(evalTime, *out.Submission.ReviewedAt)

	s.Equal(90, out.Adjustment.Previous)
	s.Equal(100, out.Adjustment.Score)

	s.Require().NotNil(out.Passport)
	claims, err := s.issuer.Validate(out.Passport.Value, evalTime.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(res.User.ID.String(), claims.UserID)
	s.Equal(res.Submission.ID.String(), claims.SubmissionID)
	s.Equal(100, claims.TrustScore)

	u := s.user(res.User.ID)
	s.Equal(usermodels.StatusApproved, u.Status)
	s.Equal(100, u.TrustScore)
	s.Require().NotNil(u.VerifiedAt)

	s.Equal([]string{
		string(audit.EventSubmissionCreated),
		string(audit.EventTrustAdjusted),
		string(audit.EventPassportIssued),
		string(audit.EventSubmissionApproved),
	}, s.actions(u.ID))

	s.Run("second review is a conflict and changes nothing", func() {
		_, err := s.service.Deny(s.ctx, res.Submission.ID, "", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(100, s.user(res.User.ID).TrustScore)

		stored, err := s.service.Get(s.ctx, res.Submission.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, stored.Status)
	})
}

func (s *VerificationServiceSuite) TestDeny() {
	res := s.submit(janeSmith("jane@acme.com"))

	out, err := s.service.Deny(s.ctx, res.Submission.ID, "document mismatch", nil)
	s.Require().NoError(err)
	s.Equal(models.StatusDenied, out.Submission.Status)
	s.Nil(out.Passport)
	s.Equal(70, out.Adjustment.Score)

	u := s.user(res.User.ID)
	s.Equal(usermodels.StatusDenied, u.Status)
	s.Equal(70, u.TrustScore)
	s.Nil(u.VerifiedAt)
}

func (s *VerificationServiceSuite) TestUnknownSubmission() {
	_, err := s.service.Approve(s.ctx, id.NewSubmissionID(), "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(s.ctx, id.NewSubmissionID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VerificationServiceSuite) TestConcurrentReviewsSettleOnce() {
	res := s.submit(janeSmith("jane@acme.com"))

	const reviewers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range reviewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			review := s.service.Approve
			if i%2 == 1 {
				review = s.service.Deny
			}
			if _, err := review(s.ctx, res.Submission.ID, "", nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	score := s.user(res.User.ID).TrustScore
	s.Contains([]int{100, 70}, score, "exactly one trust action applied")
}

func TestReviewFailureLeavesSubmissionPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	trust := mocks.NewMockTrustReviewer(ctrl)
	auditor := mocks.NewMockAuditPublisher(ctrl)

	ctx := requestcontext.WithTime(context.Background(), evalTime)
	submissions := store.NewInMemory()
	svc := New(submissions, userstore.NewInMemory(), trust, passport.NewIssuer("k", "trustgate", time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(auditor),
	)

	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	res, err := svc.Submit(ctx, janeSmith("jane@acme.com"))
	require.NoError(t, err)

	var approveErr error
	testutil.NewScenario(t).
		Given("the trust update fails", func() {
			trust.EXPECT().
				ApplyReview(gomock.Any(), res.User.ID, gomock.Any(), gomock.Nil()).
				Return(nil, dErrors.Wrap(errors.New("disk full"), dErrors.CodeInternal, "failed to update trust score"))
		}).
		When("an admin approves", func() {
			_, approveErr = svc.Approve(ctx, res.Submission.ID, "", nil)
		}).
		Then("the error surfaces", func() {
			assert.True(t, dErrors.HasCode(approveErr, dErrors.CodeInternal))
		}).
		And("the submission stays pending", func() {
			stored, err := svc.Get(ctx, res.Submission.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, stored.Status)
			assert.Nil(t, stored.ReviewedAt)
		})
}
