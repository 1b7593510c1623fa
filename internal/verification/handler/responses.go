package handler

import (
	"time"

	"trustgate/internal/passport"
	"trustgate/internal/scoring"
	"trustgate/internal/verification/models"
)

type SubmitResponse struct {
	SubmissionID string    `json:"submission_id"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// StatusResponse is the applicant-facing view. Scores stay internal.
type StatusResponse struct {
	SubmissionID string     `json:"submission_id"`
	Status       string     `json:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

type QueueItem struct {
	SubmissionID string              `json:"submission_id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Organization string              `json:"organization,omitempty"`
	RiskScore    int                 `json:"risk_score"`
	RiskLevel    string              `json:"risk_level"`
	RiskFactors  scoring.RiskFactors `json:"risk_factors"`
	Urgency      int                 `json:"urgency"`
	Credibility  int                 `json:"credibility"`
	Priority     float64             `json:"priority"`
	SubmittedAt  time.Time           `json:"submitted_at"`
}

type QueueResponse struct {
	Items []QueueItem `json:"items"`
	Total int         `json:"total"`
}

type ReviewResponse struct {
	SubmissionID string          `json:"submission_id"`
	UserID       string          `json:"user_id"`
	Status       string          `json:"status"`
	ReviewedBy   string          `json:"reviewed_by,omitempty"`
	TrustScore   int             `json:"trust_score"`
	Tier         int             `json:"tier"`
	Passport     *passport.Token `json:"passport,omitempty"`
}

func FromSubmitResult(res *models.SubmitResult) SubmitResponse {
	return SubmitResponse{
		SubmissionID: res.Submission.ID.String(),
		UserID:       res.User.ID.String(),
		Status:       string(res.Submission.Status),
		SubmittedAt:  res.Submission.CreatedAt,
	}
}

func FromSubmission(sub *models.Submission) StatusResponse {
	return StatusResponse{
		SubmissionID: sub.ID.String(),
		Status:       string(sub.Status),
		SubmittedAt:  sub.CreatedAt,
		ReviewedAt:   sub.ReviewedAt,
	}
}

func FromRanked(ranked []scoring.RankedSubmission) QueueResponse {
	items := make([]QueueItem, 0, len(ranked))
	for _, r := range ranked {
		item := QueueItem{
			SubmissionID: r.ID,
			Name:         r.Attributes.Name,
			Email:        r.Attributes.Email,
			RiskScore:    r.Risk.Score,
			RiskLevel:    string(r.Risk.Level),
			RiskFactors:  r.Risk.Factors,
			Urgency:      r.Urgency,
			Credibility:  r.Credibility,
			Priority:     r.Priority,
			SubmittedAt:  r.Attributes.CreatedAt,
		}
		if r.Attributes.Organization != nil {
			item.Organization = *r.Attributes.Organization
		}
		items = append(items, item)
	}
	return QueueResponse{Items: items, Total: len(items)}
}

func FromReviewResult(res *models.ReviewResult) ReviewResponse {
	return ReviewResponse{
		SubmissionID: res.Submission.ID.String(),
		UserID:       res.Submission.UserID.String(),
		Status:       string(res.Submission.Status),
		ReviewedBy:   res.Submission.ReviewedBy,
		TrustScore:   res.Adjustment.Score,
		Tier:         int(res.Adjustment.Tier),
		Passport:     res.Passport,
	}
}
