package models

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trustgate/internal/scoring"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// Status tracks where a user is in the admission workflow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// User owns the persisted trust score.
//
// Invariants:
//   - TrustScore is always within [0,100]
//   - Status moves pending -> approved or pending -> denied, never back
//   - VerifiedAt is set exactly when Status becomes approved
type User struct {
	ID            id.UserID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Status        Status     `json:"status"`
	TrustScore    int        `json:"trust_score"`
	EmailVerified bool       `json:"email_verified"`
	MFAVerified   bool       `json:"mfa_verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUser builds a pending user with its initial trust score.
func NewUser(userID id.UserID, name, email, passwordHash string, trustScore int, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id cannot be nil")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must be a valid address")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	if trustScore < 0 || trustScore > 100 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "trust score must be within 0-100")
	}
	return &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       StatusPending,
		TrustScore:   trustScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanReview reports whether an approval or denial may still be applied.
func (u *User) CanReview() error {
	if u.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "user has already been reviewed")
	}
	return nil
}

func (u *User) ApplyApproval(now time.Time) {
	u.Status = StatusApproved
	u.VerifiedAt = &now
	u.UpdatedAt = now
}

func (u *User) ApplyDenial(now time.Time) {
	u.Status = StatusDenied
	u.UpdatedAt = now
}

// ApplyTrustDelta moves the score by delta, clamped to [0,100], and returns
// the new score.
func (u *User) ApplyTrustDelta(delta int, now time.Time) int {
	u.TrustScore = scoring.ApplyTrustDelta(u.TrustScore, delta)
	u.UpdatedAt = now
	return u.TrustScore
}

// Tier derives the access tier. It is never stored.
func (u *User) Tier() scoring.Tier {
	return scoring.TierFor(u.TrustScore)
}

const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(password) > 72 {
		return "", dErrors.New(dErrors.CodeValidation, "password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
