package validators

import "strings"

// SanitizeString trims whitespace and enforces a maximum length.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// NormalizeEmail lowercases and trims an email so it can serve as the login
// key regardless of how the client typed it.
func NormalizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
