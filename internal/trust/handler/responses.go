package handler

import (
	"trustgate/internal/scoring"
	"trustgate/internal/trust/models"
)

type AdjustmentResponse struct {
	UserID   string `json:"user_id"`
	Action   string `json:"action"`
	Previous int    `json:"previous_score"`
	Delta    int    `json:"delta"`
	Score    int    `json:"trust_score"`
	Tier     int    `json:"tier"`
}

func FromAdjustment(a *models.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		UserID:   a.UserID.String(),
		Action:   string(a.Action),
		Previous: a.Previous,
		Delta:    a.Delta,
		Score:    a.Score,
		Tier:     int(a.Tier),
	}
}

type StandingResponse struct {
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	Score       int                 `json:"trust_score"`
	Tier        int                 `json:"tier"`
	Permissions scoring.Permissions `json:"permissions"`
}

func FromStanding(s *models.Standing) StandingResponse {
	return StandingResponse{
		UserID:      s.UserID.String(),
		Status:      s.Status,
		Score:       s.Score,
		Tier:        int(s.Tier),
		Permissions: s.Permissions,
	}
}
