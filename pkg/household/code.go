// Package household normalizes the short codes that scope every list, trip
// and price row to one household.
package household

import "strings"

const (
	// Header carries the household code on price and receipt requests.
	Header = "x-household-code"

	maxCodeLength = 32
)

// Normalize upper-cases the code and drops anything that is not an ASCII
// letter or digit.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether a normalized code is usable.
func Valid(code string) bool {
	return code != "" && len(code) <= maxCodeLength
}
