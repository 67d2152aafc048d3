// Package scoring decides whether a transcription matches its target text.
package scoring

import "strings"

// punctuation that is dropped before comparing
const punctuation = `.,!?;:'"`

// Normalize lower-cases s, removes punctuation, collapses whitespace runs to a
// single space and trims the ends.
func Normalize(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// Score reports whether recognized matches target after normalization. An
// empty recognition only matches a target that also normalizes to empty.
func Score(target, recognized string) bool {
	return Normalize(target) == Normalize(recognized)
}
