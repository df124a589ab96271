package grading

// Strengths lists, in rubric order, the criteria scored 3 or 4.
func Strengths(res Result) []string {
	return labelsWhere(res, func(s int) bool { return s >= 3 })
}

// Improvements lists, in rubric order, the criteria scored 0 or 1.
func Improvements(res Result) []string {
	return labelsWhere(res, func(s int) bool { return s <= 1 })
}

func labelsWhere(res Result, keep func(int) bool) []string {
	var out []string
	for _, c := range res.Contributions {
		if keep(c.Score) {
			out = append(out, c.Label)
		}
	}
	return out
}
