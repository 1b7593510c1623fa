package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewResult(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	limit := Limit{Requests: 3, Window: time.Minute}

	t.Run("allowed keeps retry after empty", func(t *testing.T) {
		r := NewResult(true, limit, 1, now, now)
		assert.True(t, r.Allowed)
		assert.Equal(t, 2, r.Remaining)
		assert.Equal(t, now.Add(time.Minute), r.ResetAt)
		assert.Zero(t, r.RetryAfter)
	})

	t.Run("denied waits for the oldest request to leave the window", func(t *testing.T) {
		r := NewResult(false, limit, 3, now.Add(-45*time.Second), now)
		assert.False(t, r.Allowed)
		assert.Equal(t, 0, r.Remaining)
		assert.Equal(t, 15, r.RetryAfter)
	})

	t.Run("retry after rounds up to at least one second", func(t *testing.T) {
		r := NewResult(false, limit, 3, now.Add(-time.Minute+time.Millisecond), now)
		assert.Equal(t, 1, r.RetryAfter)
	})
}

func TestLimitValidate(t *testing.T) {
	assert.NoError(t, Limit{Requests: 1, Window: time.Second}.Validate())
	assert.Error(t, Limit{Requests: 0, Window: time.Second}.Validate())
	assert.Error(t, Limit{Requests: 1}.Validate())
}
