// Package service issues and confirms email verification codes. A confirmed
// address stays verified for a configured window, during which a submission
// for it is scored with email_verified set.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"trustgate/internal/verifycode/models"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/email"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/requestcontext"
)

type Store interface {
	SaveCode(ctx context.Context, code *models.Code) error
	FindCode(ctx context.Context, email string, now time.Time) (*models.Code, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	DeleteCode(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string, until time.Time) error
	IsVerified(ctx context.Context, email string, now time.Time) (bool, error)
}

type Mailer interface {
	SendCode(ctx context.Context, to, code string, expiresAt time.Time) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config controls code shape and lifetimes.
type Config struct {
	Length         int
	TTL            time.Duration
	VerifiedTTL    time.Duration
	ResendCooldown time.Duration
}

type Service struct {
	store   Store
	mailer  Mailer
	cfg     Config
	auditor AuditPublisher
	logger  *slog.Logger
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

func New(store Store, mailer Mailer, cfg Config, opts ...Option) *Service {
	if cfg.Length == 0 {
		cfg.Length = 6
	}
	if cfg.ResendCooldown == 0 {
		cfg.ResendCooldown = 30 * time.Second
	}
	s := &Service{store: store, mailer: mailer, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendCode generates a fresh code for address, replacing any previous one,
// and delivers it. A resend inside the cooldown is rejected with CodeConflict.
func (s *Service) SendCode(ctx context.Context, address string) (time.Time, error) {
	addr, err := normalize(address)
	if err != nil {
		return time.Time{}, err
	}
	now := requestcontext.Now(ctx)

	existing, err := s.store.FindCode(ctx, addr, now)
	switch {
	case err == nil && now.Sub(existing.SentAt) < s.cfg.ResendCooldown:
		return time.Time{}, dErrors.New(dErrors.CodeConflict, "a code was sent recently; wait before requesting another")
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification code")
	}

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	record := &models.Code{
		Email:     addr,
		Hash:      models.HashCode(addr, code),
		SentAt:    now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.store.SaveCode(ctx, record); err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification code")
	}
	if err := s.mailer.SendCode(ctx, addr, code, record.ExpiresAt); err != nil {
		_ = s.store.DeleteCode(ctx, addr)
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deliver verification code")
	}

	s.emit(ctx, audit.EventEmailCodeSent, addr, "")
	s.logger.InfoContext(ctx, "verification code sent",
		"request_id", requestcontext.RequestID(ctx),
		"email", email.Mask(addr),
	)
	return record.ExpiresAt, nil
}

// ConfirmCode checks code for address. On success the code is consumed and
// the address is marked verified. After MaxAttempts wrong guesses the code
// is discarded.
func (s *Service) ConfirmCode(ctx context.Context, address, code string) error {
	addr, err := normalize(address)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	now := requestcontext.Now(ctx)

	record, err := s.store.FindCode(ctx, addr, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no active verification code for this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification code")
	}
	if record.Attempts >= models.MaxAttempts {
		_ = s.store.DeleteCode(ctx, addr)
		return dErrors.New(dErrors.CodeForbidden, "too many attempts; request a new code")
	}

	if !record.Matches(code) {
		attempts, err := s.store.IncrementAttempts(ctx, addr)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
		}
		s.emit(ctx, audit.EventEmailVerifyFailed, addr, "code mismatch")
		if attempts >= models.MaxAttempts {
			_ = s.store.DeleteCode(ctx, addr)
			return dErrors.New(dErrors.CodeForbidden, "too many attempts; request a new code")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid verification code")
	}

	if err := s.store.DeleteCode(ctx, addr); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume verification code")
	}
	if err := s.store.MarkVerified(ctx, addr, now.Add(s.cfg.VerifiedTTL)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark email verified")
	}
	s.emit(ctx, audit.EventEmailVerified, addr, "")
	return nil
}

// IsVerified reports whether address was confirmed within the verified window.
func (s *Service) IsVerified(ctx context.Context, address string) (bool, error) {
	ok, err := s.store.IsVerified(ctx, email.Normalize(address), requestcontext.Now(ctx))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email verification")
	}
	return ok, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, addr, reason string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  string(action),
		Subject: email.Mask(addr),
		Reason:  reason,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to audit verification code event", "action", action, "error", err)
	}
}

func normalize(address string) (string, error) {
	addr := email.Normalize(address)
	if addr == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(addr) {
		return "", dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return addr, nil
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
