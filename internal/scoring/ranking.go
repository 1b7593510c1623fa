package scoring

import (
	"cmp"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	urgencyWeight     = 0.6
	credibilityWeight = 0.4
)

// Candidate is a submission waiting to be ranked.
type Candidate struct {
	ID         string
	Attributes SubmissionAttributes
}

// RankedSubmission is a queue view over a scored submission. It owns nothing.
type RankedSubmission struct {
	ID          string
	Attributes  SubmissionAttributes
	Risk        RiskAssessment
	Urgency     int
	Credibility int
	Priority    float64
}

// Priority weighs "needs attention fast" above "needs scrutiny".
func Priority(urgency, credibility int) float64 {
	return float64(urgency)*urgencyWeight + float64(maxScore-credibility)*credibilityWeight
}

// RankVerifications scores every candidate and orders them by descending
// priority. Items with equal priority keep their input order.
func RankVerifications(candidates []Candidate, now time.Time) []RankedSubmission {
	ranked := make([]RankedSubmission, len(candidates))

	// The group only bounds the fan-out. rank is pure and cannot fail, so
	// Wait always returns nil.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range candidates {
		g.Go(func() error {
			ranked[i] = rank(candidates[i], now)
			return nil
		})
	}
	_ = g.Wait()

	OrderByPriority(ranked)
	return ranked
}

// OrderByPriority stable-sorts already scored views in place. Applying it to
// its own output leaves the order unchanged.
func OrderByPriority(ranked []RankedSubmission) {
	slices.SortStableFunc(ranked, func(a, b RankedSubmission) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}

func rank(c Candidate, now time.Time) RankedSubmission {
	risk := CalculateRiskScore(c.Attributes)
	urgency := CalculateUrgency(c.Attributes, risk.Score, now)
	credibility := CalculateCredibility(c.Attributes)
	return RankedSubmission{
		ID:          c.ID,
		Attributes:  c.Attributes,
		Risk:        risk,
		Urgency:     urgency,
		Credibility: credibility,
		Priority:    Priority(urgency, credibility),
	}
}
