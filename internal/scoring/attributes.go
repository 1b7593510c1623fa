// Package scoring is the risk and trust engine behind the verification queue.
//
// Everything here is a pure function of its arguments: no I/O, no clocks
// (callers pass "now"), no shared mutable state. The functions are safe to call
// concurrently on independently owned inputs.
package scoring

import (
	"strings"
	"time"
)

// SubmissionAttributes is the raw registration data a scoring pass works on.
//
// Optional fields are pointers; nil and the empty string both mean "absent",
// and absence of Phone or Organization is never penalized.
type SubmissionAttributes struct {
	Name          string    `json:"name" yaml:"name"`
	Email         string    `json:"email" yaml:"email"`
	Phone         *string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Organization  *string   `json:"organization,omitempty" yaml:"organization,omitempty"`
	GovID         *string   `json:"gov_id,omitempty" yaml:"gov_id,omitempty"`
	HasDocument   bool      `json:"has_document" yaml:"has_document"`
	EmailVerified bool      `json:"email_verified" yaml:"email_verified"`
	License       bool      `json:"license,omitempty" yaml:"license,omitempty"`
	MFAVerified   bool      `json:"mfa_verified,omitempty" yaml:"mfa_verified,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Optional returns nil for an empty (after trimming) string, else a pointer to it.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// value unwraps an optional field; ok is false when it is absent. Blank input
// counts as absent, matching Optional.
func value(s *string) (string, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", false
	}
	return *s, true
}

// emailDomain returns the lowercased part between the first and second '@',
// or "" when the address has no '@'.
func emailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
