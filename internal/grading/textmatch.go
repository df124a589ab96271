package grading

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s, strips diacritics and turns punctuation and runs of
// whitespace into single spaces, so "Metodología:" and "metodologia" match.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	out := make([]rune, 0, len(stripped))
	space := false
	for _, r := range stripped {
		switch {
		case unicode.IsSpace(r), unicode.IsPunct(r):
			space = true
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
