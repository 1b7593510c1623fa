// Package email normalizes addresses used as lookup keys and masks them for logs.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims and lowercases an address so it can be used as a key.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid reports whether address is a bare RFC 5322 address with a domain.
func IsValid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return false
	}
	_, domain, ok := strings.Cut(address, "@")
	return ok && domain != ""
}

// Mask hides the local part except its first rune: "jane@acme.com" -> "j***@acme.com".
func Mask(address string) string {
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" {
		return "***"
	}
	runes := []rune(local)
	return string(runes[0]) + "***@" + domain
}
