package grading

import "strings"

// Suggest proposes a 0-4 score per criterion from the share of its keyword
// hints found in text. It only pre-fills the form; the evaluator decides.
func Suggest(text string, r *Rubric) map[string]int {
	folded := fold(text)
	out := make(map[string]int, len(r.Criteria))
	for _, c := range r.Criteria {
		out[c.ID] = keywordScore(folded, c.Keywords)
	}
	return out
}

// keywordScore buckets the hit ratio: none → 0, <¼ → 1, <½ → 2, <¾ → 3, else 4.
func keywordScore(folded string, keywords []string) int {
	n := len(keywords)
	if n == 0 {
		return 0
	}
	hits := 0
	for _, k := range keywords {
		if k = fold(k); k != "" && strings.Contains(folded, k) {
			hits++
		}
	}
	switch {
	case hits == 0:
		return 0
	case 4*hits < n:
		return 1
	case 2*hits < n:
		return 2
	case 4*hits < 3*n:
		return 3
	default:
		return MaxScore
	}
}
