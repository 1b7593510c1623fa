package models

import (
	"strings"
	"time"

	"trustgate/internal/scoring"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusDenied:
		return StatusDenied, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be pending, approved or denied")
}

// Submission is one registration awaiting or past review.
//
// Invariants:
//   - Assessment is computed once at intake and never recomputed from
//     Attributes afterwards
//   - Status moves pending -> approved or pending -> denied, never back
//   - ReviewedBy and ReviewedAt are set exactly when Status leaves pending
type Submission struct {
	ID         id.SubmissionID
	UserID     id.UserID
	Attributes scoring.SubmissionAttributes
	Assessment scoring.Assessment
	Status     Status
	ReviewedBy string
	ReviewNote string
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

func NewSubmission(subID id.SubmissionID, userID id.UserID, attrs scoring.SubmissionAttributes, assessment scoring.Assessment) (*Submission, error) {
	if subID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission requires ids")
	}
	if attrs.CreatedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission requires a creation time")
	}
	return &Submission{
		ID:         subID,
		UserID:     userID,
		Attributes: attrs,
		Assessment: assessment,
		Status:     StatusPending,
		CreatedAt:  attrs.CreatedAt,
	}, nil
}

func (s *Submission) IsPending() bool {
	return s.Status == StatusPending
}

// CanReview checks that the submission is still awaiting a decision.
func (s *Submission) CanReview() error {
	if !s.IsPending() {
		return dErrors.New(dErrors.CodeInvariantViolation, "submission has already been "+string(s.Status))
	}
	return nil
}

// ApplyReview records the verdict. Call CanReview first.
func (s *Submission) ApplyReview(status Status, reviewer, note string, now time.Time) {
	s.Status = status
	s.ReviewedBy = reviewer
	s.ReviewNote = note
	s.ReviewedAt = &now
}

// Ranked is the queue view as of now. Risk and credibility come from the
// persisted assessment; urgency is recomputed because its recency term
// depends on the submission's age.
func (s *Submission) Ranked(now time.Time) scoring.RankedSubmission {
	urgency := scoring.CalculateUrgency(s.Attributes, s.Assessment.RiskScore, now)
	return scoring.RankedSubmission{
		ID:         s.ID.String(),
		Attributes: s.Attributes,
		Risk: scoring.RiskAssessment{
			Score:   s.Assessment.RiskScore,
			Level:   s.Assessment.RiskLevel,
			Factors: s.Assessment.RiskFactors,
		},
		Urgency:     urgency,
		Credibility: s.Assessment.Credibility,
		Priority:    scoring.Priority(urgency, s.Assessment.Credibility),
	}
}
