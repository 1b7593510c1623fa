package scoring

import "time"

// Assessment is the snapshot recorded for a submission at intake. It is
// persisted verbatim and not recomputed from raw attributes later.
type Assessment struct {
	RiskScore   int         `json:"risk_score"`
	RiskLevel   RiskLevel   `json:"risk_level"`
	RiskFactors RiskFactors `json:"risk_factors"`
	Urgency     int         `json:"urgency"`
	Credibility int         `json:"credibility"`
	TrustScore  int         `json:"trust_score"`
	Priority    float64     `json:"priority"`
}

// ScoreSubmission runs the whole pipeline once.
func ScoreSubmission(attrs SubmissionAttributes, now time.Time) Assessment {
	risk := CalculateRiskScore(attrs)
	urgency := CalculateUrgency(attrs, risk.Score, now)
	credibility := CalculateCredibility(attrs)
	return Assessment{
		RiskScore:   risk.Score,
		RiskLevel:   risk.Level,
		RiskFactors: risk.Factors,
		Urgency:     urgency,
		Credibility: credibility,
		TrustScore:  CalculateInitialTrust(attrs, risk),
		Priority:    Priority(urgency, credibility),
	}
}
