package classify

import "strings"

// Normalize lower-cases text and collapses whitespace runs to single spaces.
// Both classification strategies score against this form; bonus detectors
// run over the raw text.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
