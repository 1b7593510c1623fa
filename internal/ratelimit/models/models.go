package models

import (
	"errors"
	"math"
	"time"
)

// Limit is a sliding window: at most Requests within any Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) Validate() error {
	if l.Requests <= 0 {
		return errors.New("rate limit requests must be positive")
	}
	if l.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	return nil
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewResult derives remaining capacity and the reset time from the number of
// requests counted in the window and the oldest of them.
func NewResult(allowed bool, limit Limit, count int, oldest, now time.Time) *Result {
	resetAt := oldest.Add(limit.Window)
	if oldest.IsZero() {
		resetAt = now.Add(limit.Window)
	}
	r := &Result{
		Allowed:   allowed,
		Limit:     limit.Requests,
		Remaining: max(limit.Requests-count, 0),
		ResetAt:   resetAt,
	}
	if !allowed {
		r.RetryAfter = max(int(math.Ceil(resetAt.Sub(now).Seconds())), 1)
	}
	return r
}

// ExceededResponse is the API response when the limit is hit.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

// IPKey namespaces the bucket of one client address.
func IPKey(ip string) string {
	return "ratelimit:ip:" + ip
}
