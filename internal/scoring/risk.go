package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RiskLevel buckets a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const (
	highRiskThreshold   = 70
	mediumRiskThreshold = 40
	maxScore            = 100
)

var (
	suspiciousDomains  = []string{"tempmail", "throwaway", "10minutemail", "guerrillamail"}
	institutionDomains = []string{".edu", ".gov"}
	placeholderOrgs    = []string{"test", "fake", "demo", "example"}

	lastFourDigits = regexp.MustCompile(`^[0-9]{4}$`)
)

// RiskFactors is the signed contribution of each rule to the risk score.
type RiskFactors struct {
	EmailDomain          int `json:"emailDomain"`
	PhoneFormat          int `json:"phoneFormat"`
	GovIDFormat          int `json:"govIdFormat"`
	Organization         int `json:"organization"`
	DocumentUpload       int `json:"documentUpload"`
	CompanyEmailVerified int `json:"companyEmailVerified"`
}

// Sum adds up every factor, unclamped.
func (f RiskFactors) Sum() int {
	return f.EmailDomain + f.PhoneFormat + f.GovIDFormat + f.Organization +
		f.DocumentUpload + f.CompanyEmailVerified
}

// RiskAssessment is the output of CalculateRiskScore.
// Score always equals clamp(Factors.Sum(), 0, 100) and Level is derived from it.
type RiskAssessment struct {
	Score   int         `json:"score"`
	Level   RiskLevel   `json:"level"`
	Factors RiskFactors `json:"factors"`
}

// CalculateRiskScore scores a submission's fraud likelihood.
func CalculateRiskScore(attrs SubmissionAttributes) RiskAssessment {
	factors := RiskFactors{
		EmailDomain:          CheckEmailDomain(attrs.Email),
		PhoneFormat:          CheckPhoneFormat(attrs.Phone),
		GovIDFormat:          CheckGovIDFormat(attrs.GovID),
		Organization:         CheckOrganization(attrs.Organization),
		DocumentUpload:       CheckDocumentUpload(attrs.HasDocument),
		CompanyEmailVerified: CheckCompanyEmailVerified(attrs.EmailVerified),
	}
	score := clamp(factors.Sum(), 0, maxScore)
	return RiskAssessment{
		Score:   score,
		Level:   LevelFor(score),
		Factors: factors,
	}
}

// LevelFor maps a score to its level. Thresholds are inclusive lower bounds.
func LevelFor(score int) RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return RiskHigh
	case score >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CheckEmailDomain penalizes disposable mail providers and rewards
// institutional ones. A malformed address is not penalized here.
func CheckEmailDomain(email string) int {
	domain := emailDomain(email)
	for _, d := range suspiciousDomains {
		if strings.Contains(domain, d) {
			return 20
		}
	}
	for _, d := range institutionDomains {
		if strings.Contains(domain, d) {
			return -5
		}
	}
	return 0
}

// CheckPhoneFormat scores the digit count of an optional phone number.
func CheckPhoneFormat(phone *string) int {
	p, ok := value(phone)
	if !ok {
		return 0
	}
	switch n := digitCount(p); {
	case n < 10:
		return 15
	case n > 15:
		return 10
	default:
		return 0
	}
}

// CheckGovIDFormat treats a missing ID as a strong signal. A bare last-four
// digit reference is accepted as safe.
func CheckGovIDFormat(govID *string) int {
	id, ok := value(govID)
	if !ok || utf8.RuneCountInString(id) < 4 {
		return 25
	}
	if lastFourDigits.MatchString(id) {
		return 0
	}
	return 10
}

// CheckOrganization scores an optional organization name.
func CheckOrganization(org *string) int {
	o, ok := value(org)
	if !ok {
		return 0
	}
	if utf8.RuneCountInString(o) < 2 {
		return 15
	}
	lower := strings.ToLower(o)
	for _, term := range placeholderOrgs {
		if strings.Contains(lower, term) {
			return 20
		}
	}
	return 0
}

func CheckDocumentUpload(hasDocument bool) int {
	if hasDocument {
		return 0
	}
	return 10
}

func CheckCompanyEmailVerified(verified bool) int {
	if verified {
		return -5
	}
	return 0
}
