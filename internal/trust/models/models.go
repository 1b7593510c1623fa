package models

import (
	"trustgate/internal/scoring"
	id "trustgate/pkg/domain"
)

// Adjustment is the outcome of one trust mutation.
type Adjustment struct {
	UserID   id.UserID
	Action   scoring.Action
	Previous int
	Delta    int
	Score    int
	Tier     scoring.Tier
}

// Clamped reports whether the raw delta was cut short by the [0,100] bounds.
func (a Adjustment) Clamped() bool {
	return a.Previous+a.Delta != a.Score
}

// Standing is a user's current trust position.
type Standing struct {
	UserID      id.UserID
	Status      string
	Score       int
	Tier        scoring.Tier
	Permissions scoring.Permissions
}

// ReviewDecision is an admin verdict on a pending user.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionDeny    ReviewDecision = "deny"
)

// Action maps the decision to the trust action it applies.
func (d ReviewDecision) Action() scoring.Action {
	if d == DecisionApprove {
		return scoring.ActionAdminApproval
	}
	return scoring.ActionAdminDenial
}

// SweepResult summarizes a time_based sweep.
type SweepResult struct {
	Scanned  int
	Adjusted int
	Failed   int
}
