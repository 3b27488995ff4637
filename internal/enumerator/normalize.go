package enumerator

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minPhraseRunes is the shortest phrase accepted as a keyword.
const minPhraseRunes = 2

// NormalizePhrase canonicalizes a raw suggestion: Unicode NFKC
// normalization, lowercase, surrounding whitespace trimmed and inner
// whitespace collapsed to single spaces. Normalizing an already
// normalized phrase returns it unchanged.
func NormalizePhrase(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// ValidPhrase reports whether a normalized phrase is long enough to be
// a keyword candidate.
func ValidPhrase(s string) bool {
	return utf8.RuneCountInString(s) >= minPhraseRunes
}
