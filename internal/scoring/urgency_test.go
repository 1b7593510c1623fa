package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestCalculateUrgency(t *testing.T) {
	fresh := SubmissionAttributes{Name: "Jane Doe", Email: "jane@acme.com", CreatedAt: evalTime.Add(-30 * time.Minute)}
	today := SubmissionAttributes{Name: "Jane Doe", Email: "jane@acme.com", CreatedAt: evalTime.Add(-5 * time.Hour)}
	stale := SubmissionAttributes{Name: "Jane Doe", Email: "jane@acme.com", CreatedAt: evalTime.Add(-72 * time.Hour)}

	t.Run("risk contribution", func(t *testing.T) {
		assert.Equal(t, 0, CalculateUrgency(stale, 39, evalTime))
		assert.Equal(t, 20, CalculateUrgency(stale, 40, evalTime))
		assert.Equal(t, 20, CalculateUrgency(stale, 69, evalTime))
		assert.Equal(t, 40, CalculateUrgency(stale, 70, evalTime))
	})

	t.Run("recency contribution", func(t *testing.T) {
		assert.Equal(t, 30, CalculateUrgency(fresh, 0, evalTime))
		assert.Equal(t, 15, CalculateUrgency(today, 0, evalTime))
		assert.Equal(t, 0, CalculateUrgency(stale, 0, evalTime))
	})

	t.Run("everything at once is capped at 100", func(t *testing.T) {
		attrs := fresh
		attrs.Name = "qwerty"
		assert.Equal(t, 100, CalculateUrgency(attrs, 95, evalTime))
	})
}

func TestUrgencyIsMonotonicAndBounded(t *testing.T) {
	ages := []time.Duration{200 * time.Hour, 24 * time.Hour, 23 * time.Hour, time.Hour, 59 * time.Minute, 0}
	names := []string{"Jane Doe", "zzzzz"}

	for _, name := range names {
		for _, age := range ages {
			attrs := SubmissionAttributes{Name: name, Email: "jane@acme.com", CreatedAt: evalTime.Add(-age)}
			prev := -1
			for risk := 0; risk <= 100; risk++ {
				u := CalculateUrgency(attrs, risk, evalTime)
				assert.GreaterOrEqual(t, u, prev, "urgency dropped as risk rose")
				assert.GreaterOrEqual(t, u, 0)
				assert.LessOrEqual(t, u, 100)
				prev = u
			}
		}
	}

	t.Run("newer submissions never score lower", func(t *testing.T) {
		prev := -1
		for _, age := range ages {
			attrs := SubmissionAttributes{Name: "Jane Doe", CreatedAt: evalTime.Add(-age)}
			u := CalculateUrgency(attrs, 50, evalTime)
			assert.GreaterOrEqual(t, u, prev)
			prev = u
		}
	})

	t.Run("suspicious patterns never lower urgency", func(t *testing.T) {
		clean := SubmissionAttributes{Name: "Jane Doe", CreatedAt: evalTime}
		flagged := SubmissionAttributes{Name: "aaaaa", CreatedAt: evalTime}
		assert.GreaterOrEqual(t, CalculateUrgency(flagged, 50, evalTime), CalculateUrgency(clean, 50, evalTime))
	})
}

func TestHasSuspiciousPatterns(t *testing.T) {
	assert.True(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "aaaaa"}))
	assert.True(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "qwerty123"}))
	assert.True(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "Bob ABCDE"}))
	assert.True(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "user 12345"}))
	assert.True(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "Jo", Email: "jooooooe@acme.com"}))
	assert.False(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "Jane Doe"}))
	assert.False(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "aaaa", Email: "aaaa@b.com"}))
	assert.False(t, HasSuspiciousPatterns(SubmissionAttributes{Name: "aAaAa"}))
}
