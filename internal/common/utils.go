package common

import (
	"strings"
	"unicode"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ContainsFold is HasAny ignoring case.
func ContainsFold(s string, subs ...string) bool {
	lowered := make([]string, len(subs))
	for i, sub := range subs {
		lowered[i] = strings.ToLower(sub)
	}
	return HasAny(strings.ToLower(s), lowered...)
}

// NormalizeName lowercases a display name and strips generic parking prefixes
// and punctuation so that "Parkhaus Eiermarkt" and "Eiermarkt" compare equal.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	for _, prefix := range []string{"parkhaus", "tiefgarage", "parkplatz", "ph", "tg"} {
		if strings.HasPrefix(lower, prefix+" ") {
			lower = strings.TrimPrefix(lower, prefix+" ")
			break
		}
	}

	var b strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
