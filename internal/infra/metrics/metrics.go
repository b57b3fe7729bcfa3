package metrics

import "strings"

// norm keeps label values lowercase and bounded so a stray status string
// cannot explode cardinality.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	if len(s) > 32 {
		return s[:32]
	}
	return s
}
