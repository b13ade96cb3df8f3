package domain

import (
	"regexp"
	"strings"
)

// Unnamed is the token used when a name sanitizes to nothing
const Unnamed = "UNNAMED"

var (
	// disallowedRuns matches any run of characters outside [A-Za-z0-9-_]
	disallowedRuns = regexp.MustCompile(`[^A-Za-z0-9\-_]+`)
	// multiDash collapses consecutive dashes
	multiDash = regexp.MustCompile(`-{2,}`)
)

// Sanitize converts arbitrary text into an uppercase, filesystem-safe token.
//   - Runs of characters outside [A-Za-z0-9-_] become a single '-'
//   - Consecutive dashes collapse
//   - Leading/trailing dashes are trimmed
//   - Empty results map to Unnamed
//
// Example: "  cat #12 (left) " → "CAT-12-LEFT"
func Sanitize(text string) string {
	if s := sanitizeToken(text); s != "" {
		return s
	}
	return Unnamed
}

// sanitizeToken is Sanitize without the Unnamed fallback
func sanitizeToken(text string) string {
	s := strings.TrimSpace(text)
	s = disallowedRuns.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToUpper(s)
}

// AnswerLine returns the last non-empty line of noisy recognizer output.
// Recognizers tend to put reasoning first and the answer last.
func AnswerLine(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
