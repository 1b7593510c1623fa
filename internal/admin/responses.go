package admin

import (
	"time"

	audit "trustgate/pkg/platform/audit"
)

// AuditEventResponse is one entry of a user's audit trail.
type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// AuditTrailResponse wraps the audit trail for HTTP response.
type AuditTrailResponse struct {
	UserID string                `json:"user_id"`
	Events []*AuditEventResponse `json:"events"`
	Total  int                   `json:"total"`
}

func FromEvents(userID string, events []audit.Event) *AuditTrailResponse {
	resp := &AuditTrailResponse{UserID: userID, Events: make([]*AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, &AuditEventResponse{
			Timestamp: e.Timestamp,
			Category:  string(e.Category),
			Action:    e.Action,
			Subject:   e.Subject,
			Decision:  e.Decision,
			Reason:    e.Reason,
			ActorID:   e.ActorID,
			RequestID: e.RequestID,
			Device:    e.Device,
		})
	}
	resp.Total = len(resp.Events)
	return resp
}
