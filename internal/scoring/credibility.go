package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const baseCredibility = 50

var organizationCharset = regexp.MustCompile(`^[A-Za-z0-9\s&.,-]+$`)

// CalculateCredibility estimates how trustworthy a submission looks on its own.
// Phone and organization are optional: leaving them out never lowers the score.
func CalculateCredibility(attrs SubmissionAttributes) int {
	score := baseCredibility

	if attrs.HasDocument {
		score += 20
	}
	if attrs.EmailVerified {
		score += 15
	}
	if IsEmailDomainValid(attrs.Email) {
		score += 10
	}
	if org, ok := value(attrs.Organization); ok && IsOrganizationValid(org) {
		score += 10
	}
	if id, ok := value(attrs.GovID); !ok || utf8.RuneCountInString(id) < 4 {
		score -= 15
	}
	if phone, ok := value(attrs.Phone); ok && !IsPhoneValid(phone) {
		score -= 10
	}

	return clamp(score, 0, maxScore)
}

// CalculateStrictCredibility is the older variant that treats a missing or
// invalid organization and phone as negative evidence. It is not used by the
// intake pipeline and is kept for side-by-side comparison in trustctl.
func CalculateStrictCredibility(attrs SubmissionAttributes) int {
	score := baseCredibility

	if attrs.HasDocument {
		score += 20
	}
	if attrs.EmailVerified {
		score += 15
	}
	if IsEmailDomainValid(attrs.Email) {
		score += 10
	}
	if org, ok := value(attrs.Organization); ok && IsOrganizationValid(org) {
		score += 10
	} else {
		score -= 10
	}
	if id, ok := value(attrs.GovID); !ok || utf8.RuneCountInString(id) < 4 {
		score -= 15
	}
	if phone, ok := value(attrs.Phone); !ok || !IsPhoneValid(phone) {
		score -= 10
	}

	return clamp(score, 0, maxScore)
}

// IsEmailDomainValid requires a domain part that contains a dot and is longer
// than three characters.
func IsEmailDomainValid(email string) bool {
	domain := emailDomain(email)
	return domain != "" && strings.Contains(domain, ".") && len(domain) > 3
}

// IsOrganizationValid requires three or more characters from a conservative
// set (letters, digits, whitespace and & . , -).
func IsOrganizationValid(org string) bool {
	return utf8.RuneCountInString(org) >= 3 && organizationCharset.MatchString(org)
}

// IsPhoneValid accepts 10 to 15 digits, ignoring formatting characters.
func IsPhoneValid(phone string) bool {
	n := digitCount(phone)
	return n >= 10 && n <= 15
}
