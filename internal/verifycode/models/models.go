package models

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// MaxAttempts is how many wrong guesses a code survives.
const MaxAttempts = 5

// Code is a pending email verification code. Only its hash is stored.
type Code struct {
	Email     string    `json:"email"`
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Code) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Matches compares a submitted code against the stored hash in constant time.
func (c *Code) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(HashCode(c.Email, code)), []byte(c.Hash)) == 1
}

// HashCode binds the code to its email so one hash never verifies another
// address.
func HashCode(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}
