package handler

import (
	"fmt"
	"strings"

	"trustgate/internal/scoring"
	"trustgate/internal/verification/models"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/email"
)

// SubmitRequest is the body of POST /verification/submissions.
type SubmitRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
	GovID        string `json:"gov_id,omitempty"`
	HasDocument  bool   `json:"has_document"`
	License      bool   `json:"license,omitempty"`
	MFAVerified  bool   `json:"mfa_verified,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

func (r *SubmitRequest) Input() models.SubmitInput {
	return models.SubmitInput{
		Name:         r.Name,
		Email:        r.Email,
		Password:     r.Password,
		Phone:        strings.TrimSpace(r.Phone),
		Organization: strings.TrimSpace(r.Organization),
		GovID:        strings.TrimSpace(r.GovID),
		HasDocument:  r.HasDocument,
		License:      r.License,
		MFAVerified:  r.MFAVerified,
	}
}

// ReviewRequest is the optional body of the approve and deny endpoints.
// Value overrides the default trust delta of the decision.
type ReviewRequest struct {
	Note  string `json:"note,omitempty"`
	Value *int   `json:"value,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	if r == nil {
		return nil
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 1000 characters")
	}
	if r.Value != nil && (*r.Value < 0 || *r.Value > scoring.MaxAdjustment) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("value must be between 0 and %d", scoring.MaxAdjustment))
	}
	return nil
}
