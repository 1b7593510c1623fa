package models

import (
	"trustgate/internal/passport"
	trustmodels "trustgate/internal/trust/models"
	usermodels "trustgate/internal/users/models"
)

// SubmitInput is the raw intake data for a new registration.
type SubmitInput struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	Organization string
	GovID        string
	HasDocument  bool
	License      bool
	MFAVerified  bool
}

// SubmitResult is what intake returns to the caller.
type SubmitResult struct {
	Submission *Submission
	User       *usermodels.User
}

// ReviewResult is the outcome of an approve or deny.
type ReviewResult struct {
	Submission *Submission
	Adjustment *trustmodels.Adjustment
	// Passport is set on approval only.
	Passport *passport.Token
}
