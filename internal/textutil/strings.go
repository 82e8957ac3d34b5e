package textutil

import "strings"

// Lines splits multi-line cell text and trims each line. Blank lines are
// kept so positional access ("second line is the model") stays stable.
func Lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	parts := strings.Split(strings.TrimSpace(s), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// CollapseSpace joins all whitespace runs into a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
