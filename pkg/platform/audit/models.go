package audit

import (
	"context"
	"time"

	id "trustgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers review decisions and trust changes.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers failed verification attempts and rejected credentials.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"user_id"`
	// Subject is the object acted upon, e.g. a submission ID.
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// ActorID is the admin who performed the action, when not the user.
	ActorID string `json:"actor_id,omitempty"`
	Device  string `json:"device,omitempty"`
}

type AuditEvent string

const (
	EventSubmissionCreated  AuditEvent = "submission_created"
	EventSubmissionApproved AuditEvent = "submission_approved"
	EventSubmissionDenied   AuditEvent = "submission_denied"

	EventTrustAdjusted AuditEvent = "trust_adjusted"
	EventTrustAged     AuditEvent = "trust_aged"

	EventPassportIssued   AuditEvent = "passport_issued"
	EventPassportRejected AuditEvent = "passport_rejected"

	EventEmailCodeSent     AuditEvent = "email_code_sent"
	EventEmailVerified     AuditEvent = "email_verified"
	EventEmailVerifyFailed AuditEvent = "email_verify_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSubmissionApproved: CategoryCompliance,
	EventSubmissionDenied:   CategoryCompliance,
	EventTrustAdjusted:      CategoryCompliance,
	EventPassportIssued:     CategoryCompliance,

	EventPassportRejected:  CategorySecurity,
	EventEmailVerifyFailed: CategorySecurity,

	EventSubmissionCreated: CategoryOperations,
	EventTrustAged:         CategoryOperations,
	EventEmailCodeSent:     CategoryOperations,
	EventEmailVerified:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
