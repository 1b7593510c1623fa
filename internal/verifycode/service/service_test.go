package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/verifycode/mailer"
	"trustgate/internal/verifycode/models"
	"trustgate/internal/verifycode/store"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	audit "trustgate/pkg/platform/audit"
	auditmemory "trustgate/pkg/platform/audit/store/memory"
	"trustgate/pkg/platform/audit/publisher"
	"trustgate/pkg/requestcontext"
)

var sentAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type VerifyCodeSuite struct {
	suite.Suite
	store   *store.InMemory
	outbox  *mailer.Outbox
	audit   *auditmemory.InMemoryStore
	service *Service
}

func TestVerifyCodeSuite(t *testing.T) {
	suite.Run(t, new(VerifyCodeSuite))
}

func (s *VerifyCodeSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.outbox = mailer.NewOutbox()
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.store, s.outbox,
		Config{Length: 6, TTL: 10 * time.Minute, VerifiedTTL: 24 * time.Hour},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	)
}

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *VerifyCodeSuite) TestSendAndConfirm() {
	expires, err := s.service.SendCode(at(sentAt), " Jane@Acme.com ")
	s.Require().NoError(err)
	s.Equal(sentAt.Add(10*time.Minute), expires)

	code, ok := s.outbox.Last("jane@acme.com")
	s.Require().True(ok)
	s.Len(code, 6)

	verified, err := s.service.IsVerified(at(sentAt), "jane@acme.com")
	s.Require().NoError(err)
	s.False(verified)

	s.Require().NoError(s.service.ConfirmCode(at(sentAt.Add(time.Minute)), "JANE@acme.com", code))

	verified, err = s.service.IsVerified(at(sentAt.Add(time.Hour)), "jane@acme.com")
	s.Require().NoError(err)
	s.True(verified)

	verified, _ = s.service.IsVerified(at(sentAt.Add(25*time.Hour)), "jane@acme.com")
	s.False(verified, "verification window lapses")

	err = s.service.ConfirmCode(at(sentAt.Add(2*time.Minute)), "jane@acme.com", code)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "codes are single use")
}

func (s *VerifyCodeSuite) TestResendCooldown() {
	_, err := s.service.SendCode(at(sentAt), "jane@acme.com")
	s.Require().NoError(err)

	_, err = s.service.SendCode(at(sentAt.Add(5*time.Second)), "jane@acme.com")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.SendCode(at(sentAt.Add(time.Minute)), "jane@acme.com")
	s.NoError(err)
}

func (s *VerifyCodeSuite) TestExpiredCode() {
	_, err := s.service.SendCode(at(sentAt), "jane@acme.com")
	s.Require().NoError(err)
	code, _ := s.outbox.Last("jane@acme.com")

	err = s.service.ConfirmCode(at(sentAt.Add(11*time.Minute)), "jane@acme.com", code)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VerifyCodeSuite) TestTooManyAttempts() {
	_, err := s.service.SendCode(at(sentAt), "jane@acme.com")
	s.Require().NoError(err)
	code, _ := s.outbox.Last("jane@acme.com")
	wrong := "x" + code[1:]

	for i := 1; i < models.MaxAttempts; i++ {
		err := s.service.ConfirmCode(at(sentAt), "jane@acme.com", wrong)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "attempt %d", i)
	}
	err = s.service.ConfirmCode(at(sentAt), "jane@acme.com", wrong)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = s.service.ConfirmCode(at(sentAt), "jane@acme.com", code)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "the code is burned after the limit")

	events, _ := s.audit.ListByUser(context.Background(), id.UserID{})
	failures := 0
	for _, e := range events {
		if e.Action == string(audit.EventEmailVerifyFailed) {
			failures++
		}
	}
	s.Equal(models.MaxAttempts, failures)
}

func (s *VerifyCodeSuite) TestValidation() {
	_, err := s.service.SendCode(at(sentAt), "not-an-email")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	err = s.service.ConfirmCode(at(sentAt), "jane@acme.com", " ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *VerifyCodeSuite) TestRemoveExpiredAt() {
	_, err := s.service.SendCode(at(sentAt), "jane@acme.com")
	s.Require().NoError(err)

	s.Equal(0, s.store.RemoveExpiredAt(sentAt.Add(time.Minute)))
	s.Equal(1, s.store.RemoveExpiredAt(sentAt.Add(time.Hour)))
}
