package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

func janeSmith() SubmissionAttributes {
	return SubmissionAttributes{
		Name:          "Jane Smith",
		Email:         "jane@acme.com",
		Phone:         str("555-123-4567"),
		Organization:  str("Acme Corp"),
		GovID:         str("1234"),
		HasDocument:   true,
		EmailVerified: true,
		CreatedAt:     evalTime.Add(-48 * time.Hour),
	}
}

type RankingSuite struct {
	suite.Suite
}

func TestRankingSuite(t *testing.T) {
	suite.Run(t, new(RankingSuite))
}

func (s *RankingSuite) TestEndToEndScenario() {
	attrs := janeSmith()

	risk := CalculateRiskScore(attrs)
	s.Equal(RiskFactors{CompanyEmailVerified: -5}, risk.Factors)
	s.Equal(0, risk.Score)
	s.Equal(RiskLow, risk.Level)

	a := ScoreSubmission(attrs, evalTime)
	s.Equal(100, a.Credibility)
	s.Equal(0, a.Urgency)
	s.Equal(90, a.TrustScore)
	s.InDelta(0.0, a.Priority, 1e-9)
}

func (s *RankingSuite) TestPriorityFormula() {
	s.InDelta(60.0, Priority(100, 100), 1e-9)
	s.InDelta(40.0, Priority(0, 0), 1e-9)
	s.InDelta(100.0, Priority(100, 0), 1e-9)
}

func (s *RankingSuite) TestOrdersByDescendingPriority() {
	risky := SubmissionAttributes{Name: "zzzzz", Email: "z@tempmail.com", Phone: str("1"), CreatedAt: evalTime}
	clean := janeSmith()

	ranked := RankVerifications([]Candidate{
		{ID: "clean", Attributes: clean},
		{ID: "risky", Attributes: risky},
	}, evalTime)

	s.Require().Len(ranked, 2)
	s.Equal("risky", ranked[0].ID)
	s.Equal("clean", ranked[1].ID)
	s.Greater(ranked[0].Priority, ranked[1].Priority)
	s.Equal(RiskHigh, ranked[0].Risk.Level)
}

func (s *RankingSuite) TestStableForEqualPriority() {
	var candidates []Candidate
	for i := range 50 {
		candidates = append(candidates, Candidate{ID: fmt.Sprintf("same-%02d", i), Attributes: janeSmith()})
	}
	candidates = append(candidates, Candidate{
		ID:         "urgent",
		Attributes: SubmissionAttributes{Name: "qwerty", CreatedAt: evalTime},
	})

	ranked := RankVerifications(candidates, evalTime)

	s.Equal("urgent", ranked[0].ID)
	for i, r := range ranked[1:] {
		s.Equal(fmt.Sprintf("same-%02d", i), r.ID, "equal-priority items must keep input order")
	}
}

func (s *RankingSuite) TestIdempotent() {
	candidates := []Candidate{
		{ID: "a", Attributes: janeSmith()},
		{ID: "b", Attributes: SubmissionAttributes{Name: "Bob", Email: "bob@throwaway.org", CreatedAt: evalTime.Add(-2 * time.Hour)}},
		{ID: "c", Attributes: SubmissionAttributes{Name: "Cy", Email: "cy@uni.edu", GovID: str("9876"), CreatedAt: evalTime}},
		{ID: "d", Attributes: janeSmith()},
	}

	first := RankVerifications(candidates, evalTime)
	again := append([]RankedSubmission(nil), first...)
	OrderByPriority(again)
	s.Equal(first, again)

	var reranked []Candidate
	for _, r := range first {
		reranked = append(reranked, Candidate{ID: r.ID, Attributes: r.Attributes})
	}
	second := RankVerifications(reranked, evalTime)
	for i := range first {
		s.Equal(first[i].ID, second[i].ID)
	}
}

func (s *RankingSuite) TestParallelScoringMatchesPerItemAssessment() {
	var candidates []Candidate
	for i := range 200 {
		attrs := janeSmith()
		attrs.Email = fmt.Sprintf("user%d@tempmail.com", i)
		attrs.CreatedAt = evalTime.Add(-time.Duration(i) * time.Hour)
		candidates = append(candidates, Candidate{ID: fmt.Sprint(i), Attributes: attrs})
	}

	ranked := RankVerifications(candidates, evalTime)
	s.Require().Len(ranked, len(candidates))

	seen := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		seen[r.ID] = true
		a := ScoreSubmission(r.Attributes, evalTime)
		s.Equal(a.Urgency, r.Urgency, r.ID)
		s.Equal(a.Credibility, r.Credibility, r.ID)
		s.InDelta(a.Priority, r.Priority, 1e-9, r.ID)
	}
	s.Len(seen, len(candidates))
}

func (s *RankingSuite) TestEmptyInput() {
	s.Empty(RankVerifications(nil, evalTime))
}
