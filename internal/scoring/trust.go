package scoring

import (
	"fmt"
	"time"
)

const baseTrust = 50

// CalculateInitialTrust seeds a user's trust score at submission time.
func CalculateInitialTrust(attrs SubmissionAttributes, risk RiskAssessment) int {
	score := baseTrust

	if attrs.HasDocument {
		score += 15
	}
	if attrs.License {
		score += 10
	}
	if IsEmailDomainValid(attrs.Email) {
		score += 5
	}
	if org, ok := value(attrs.Organization); ok && IsOrganizationValid(org) {
		score += 5
	}

	switch risk.Level {
	case RiskLow:
		score += 15
	case RiskMedium:
		score += 5
	case RiskHigh:
		score -= 10
	}

	if attrs.MFAVerified {
		score += 10
	}

	return clamp(score, 0, maxScore)
}

// Action names an event that moves a persisted trust score.
type Action string

const (
	ActionAdminApproval       Action = "admin_approval"
	ActionAdminDenial         Action = "admin_denial"
	ActionPositiveInteraction Action = "positive_interaction"
	ActionNegativeInteraction Action = "negative_interaction"
	ActionTimeBased           Action = "time_based"
)

// defaultMagnitudes is the step applied when the caller gives no value.
var defaultMagnitudes = map[Action]int{
	ActionAdminApproval:       10,
	ActionAdminDenial:         20,
	ActionPositiveInteraction: 5,
	ActionNegativeInteraction: 10,
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := defaultMagnitudes[a]; ok || a == ActionTimeBased {
		return a, nil
	}
	return "", fmt.Errorf("unknown trust action %q", s)
}

// MaxAdjustment bounds the magnitude of a single trust adjustment. Anything
// larger already spans the whole score range.
const MaxAdjustment = maxScore

// TrustDelta is the signed change an action applies to a trust score.
//
// For the magnitude actions a nil value means "use the default"; value must not
// be negative and saturates at MaxAdjustment. ActionTimeBased ignores value and rewards account age measured
// from verifiedAt: +2 past 30 days, a further +3 past 90. An unverified user
// earns nothing from it.
func TrustDelta(action Action, value *int, verifiedAt *time.Time, now time.Time) (int, error) {
	if action == ActionTimeBased {
		return timeBasedDelta(verifiedAt, now), nil
	}

	magnitude, ok := defaultMagnitudes[action]
	if !ok {
		return 0, fmt.Errorf("unknown trust action %q", action)
	}
	if value != nil {
		if *value < 0 {
			return 0, fmt.Errorf("trust adjustment value must not be negative, got %d", *value)
		}
		magnitude = min(*value, MaxAdjustment)
	}

	switch action {
	case ActionAdminDenial, ActionNegativeInteraction:
		return -magnitude, nil
	default:
		return magnitude, nil
	}
}

// ApplyTrustDelta adds delta to current and reclamps into [0,100]. Both
// inputs are bounded first so the sum cannot overflow.
func ApplyTrustDelta(current, delta int) int {
	current = clamp(current, 0, maxScore)
	delta = clamp(delta, -MaxAdjustment, MaxAdjustment)
	return clamp(current+delta, 0, maxScore)
}

func timeBasedDelta(verifiedAt *time.Time, now time.Time) int {
	if verifiedAt == nil || verifiedAt.IsZero() {
		return 0
	}
	days := now.Sub(*verifiedAt).Hours() / 24
	delta := 0
	if days > 30 {
		delta += 2
	}
	if days > 90 {
		delta += 3
	}
	return delta
}
