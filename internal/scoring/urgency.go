package scoring

import (
	"strings"
	"time"
)

const suspiciousRunLength = 5

var keyboardPatterns = []string{"12345", "abcde", "qwerty"}

// CalculateUrgency estimates how soon a submission needs review. Every term is
// non-negative, so only the upper bound needs clamping.
func CalculateUrgency(attrs SubmissionAttributes, riskScore int, now time.Time) int {
	urgency := 0

	switch {
	case riskScore >= highRiskThreshold:
		urgency += 40
	case riskScore >= mediumRiskThreshold:
		urgency += 20
	}

	switch age := now.Sub(attrs.CreatedAt).Hours(); {
	case age < 1:
		urgency += 30
	case age < 24:
		urgency += 15
	}

	if HasSuspiciousPatterns(attrs) {
		urgency += 30
	}

	if urgency > maxScore {
		return maxScore
	}
	return urgency
}

// HasSuspiciousPatterns flags keyboard-mash input: the same character five or
// more times in a row in name or email, or a keyboard run in the name.
func HasSuspiciousPatterns(attrs SubmissionAttributes) bool {
	if hasRepeatedRun(attrs.Name, suspiciousRunLength) || hasRepeatedRun(attrs.Email, suspiciousRunLength) {
		return true
	}
	name := strings.ToLower(attrs.Name)
	for _, p := range keyboardPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
