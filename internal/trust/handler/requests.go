package handler

import (
	"fmt"
	"strings"

	"trustgate/internal/scoring"
	dErrors "trustgate/pkg/domain-errors"
)

// AdjustRequest is the body of POST /admin/trust/{user_id}/adjust.
type AdjustRequest struct {
	Action string `json:"action"`
	Value  *int   `json:"value,omitempty"`

	parsedAction scoring.Action
}

func (r *AdjustRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	action, err := scoring.ParseAction(r.Action)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if r.Value != nil && (*r.Value < 0 || *r.Value > scoring.MaxAdjustment) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("value must be between 0 and %d", scoring.MaxAdjustment))
	}
	r.parsedAction = action
	return nil
}

func (r *AdjustRequest) ParsedAction() scoring.Action {
	return r.parsedAction
}
