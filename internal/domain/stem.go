package domain

import "strings"

// StemParts is a reviewer-authored name split into its three fields
type StemParts struct {
	Prefix string
	Middle string
	Index  string
}

// ComposeStem sanitizes each part and joins the non-empty ones with '-'.
// When every part is empty the result is Unnamed.
func ComposeStem(p StemParts) string {
	var parts []string
	for _, raw := range []string{p.Prefix, p.Middle, p.Index} {
		if tok := sanitizeToken(raw); tok != "" {
			parts = append(parts, tok)
		}
	}
	if len(parts) == 0 {
		return Unnamed
	}
	return strings.Join(parts, "-")
}

// Override is a per-file naming decision that bypasses recognition.
// Stem, when set, wins over the composed parts.
type Override struct {
	OldName string
	Parts   StemParts
	Stem    string
}

// Base returns the base name the override feeds to the planner
func (o Override) Base() string {
	if strings.TrimSpace(o.Stem) != "" {
		return Sanitize(o.Stem)
	}
	return ComposeStem(o.Parts)
}
