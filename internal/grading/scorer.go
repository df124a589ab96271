package grading

import (
	"sort"

	"github.com/shopspring/decimal"
)

var maxScoreDec = decimal.NewFromInt(MaxScore)

// ScoreSheet is one evaluator's assignment of a 0-4 score to each criterion.
type ScoreSheet struct {
	Scores         map[string]int    `json:"scores"`
	Comments       map[string]string `json:"comments,omitempty"`
	GeneralComment string            `json:"general_comment,omitempty"`
}

// Contribution is the share a single criterion adds to the final percentage.
type Contribution struct {
	CriterionID string          `json:"criterion_id"`
	Label       string          `json:"label"`
	Score       int             `json:"score"`
	Weight      decimal.Decimal `json:"weight"`
	Points      decimal.Decimal `json:"points"` // percentage points
}

type Result struct {
	RawTotal      int             `json:"raw_total"`
	MaxRawTotal   int             `json:"max_raw_total"`
	Percentage    decimal.Decimal `json:"percentage"`
	Verdict       Verdict         `json:"verdict"`
	Contributions []Contribution  `json:"contributions"`
}

// Display renders the percentage with two decimals, truncating so that the
// shown value never crosses a threshold the exact value did not reach.
func (r Result) Display() string {
	return r.Percentage.Truncate(2).StringFixed(2)
}

// Display formats a single contribution like Result.Display.
func (c Contribution) Display() string {
	return c.Points.Truncate(2).StringFixed(2)
}

// Score computes the weighted percentage and verdict for sheet. The sheet
// must carry exactly one score in [0,4] for every rubric criterion and
// nothing else; otherwise a *ValidationError is returned with a zero Result.
func Score(sheet ScoreSheet, r *Rubric) (Result, error) {
	if err := checkSheet(sheet, r); err != nil {
		return Result{}, err
	}

	res := Result{
		MaxRawTotal:   MaxScore * len(r.Criteria),
		Contributions: make([]Contribution, 0, len(r.Criteria)),
	}
	total := decimal.Zero
	for _, c := range r.Criteria {
		s := sheet.Scores[c.ID]
		points := decimal.NewFromInt(int64(s)).Mul(c.Weight).Div(maxScoreDec)
		if r.Unit == UnitFraction {
			points = points.Mul(hundred)
		}
		total = total.Add(points)
		res.RawTotal += s
		res.Contributions = append(res.Contributions, Contribution{
			CriterionID: c.ID,
			Label:       c.Label,
			Score:       s,
			Weight:      c.Weight,
			Points:      points,
		})
	}
	res.Percentage = total
	res.Verdict = VerdictFor(total)
	return res, nil
}

func checkSheet(sheet ScoreSheet, r *Rubric) error {
	verr := &ValidationError{Subject: "score sheet"}
	for _, c := range r.Criteria {
		s, ok := sheet.Scores[c.ID]
		switch {
		case !ok:
			verr.add(c.ID, "missing score")
		case s < 0 || s > MaxScore:
			verr.add(c.ID, "score %d out of range [0,%d]", s, MaxScore)
		}
	}
	var unknown []string
	for id := range sheet.Scores {
		if _, ok := r.Criterion(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		verr.add(id, "unknown criterion")
	}
	return verr.orNil()
}
