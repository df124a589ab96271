package http

import (
	"time"

	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
)

// previewChars caps the extracted text shown back to the evaluator.
const previewChars = 6000

type documentView struct {
	extract.Document
	Preview   string `json:"preview"`
	Truncated bool   `json:"truncated"`
}

type contributionView struct {
	CriterionID string `json:"criterion_id"`
	Label       string `json:"label"`
	Score       int    `json:"score"`
	Weight      string `json:"weight"`
	Points      string `json:"points"`
}

type resultView struct {
	RawTotal      int                `json:"raw_total"`
	MaxRawTotal   int                `json:"max_raw_total"`
	Percentage    string             `json:"percentage"`
	Verdict       grading.Verdict    `json:"verdict"`
	Contributions []contributionView `json:"contributions"`
	Strengths     []string           `json:"strengths"`
	Improvements  []string           `json:"improvements"`
}

type sessionView struct {
	ID        string              `json:"id"`
	Evaluator string              `json:"evaluator"`
	ExpiresAt time.Time           `json:"expires_at"`
	Document  *documentView       `json:"document,omitempty"`
	Suggested map[string]int      `json:"suggested,omitempty"`
	Sheet     *grading.ScoreSheet `json:"sheet,omitempty"`
	Result    *resultView         `json:"result,omitempty"`
}

type rubricView struct {
	Title      string              `json:"title"`
	Unit       grading.WeightUnit  `json:"unit"`
	MaxScore   int                 `json:"max_score"`
	Thresholds map[string]string   `json:"thresholds"`
	Criteria   []grading.Criterion `json:"criteria"`
}

func newDocumentView(d *extract.Document) *documentView {
	if d == nil {
		return nil
	}
	return &documentView{Document: *d, Preview: d.Preview(previewChars), Truncated: d.Chars > previewChars}
}

// newResultView reports weights in percentage points whatever unit the
// rubric declares them in.
func newResultView(res *grading.Result, unit grading.WeightUnit) *resultView {
	if res == nil {
		return nil
	}
	v := &resultView{
		RawTotal:      res.RawTotal,
		MaxRawTotal:   res.MaxRawTotal,
		Percentage:    res.Display(),
		Verdict:       res.Verdict,
		Contributions: make([]contributionView, 0, len(res.Contributions)),
		Strengths:     grading.Strengths(*res),
		Improvements:  grading.Improvements(*res),
	}
	for _, c := range res.Contributions {
		v.Contributions = append(v.Contributions, contributionView{
			CriterionID: c.CriterionID,
			Label:       c.Label,
			Score:       c.Score,
			Weight:      unit.Percent(c.Weight).String(),
			Points:      c.Display(),
		})
	}
	return v
}

func newSessionView(s evaluation.Session, unit grading.WeightUnit) sessionView {
	return sessionView{
		ID:        s.ID,
		Evaluator: s.Evaluator,
		ExpiresAt: s.ExpiresAt,
		Document:  newDocumentView(s.Document),
		Suggested: s.Suggested,
		Sheet:     s.Sheet,
		Result:    newResultView(s.Result, unit),
	}
}

func newRubricView(r *grading.Rubric) rubricView {
	return rubricView{
		Title:    r.Title,
		Unit:     r.Unit,
		MaxScore: grading.MaxScore,
		Thresholds: map[string]string{
			string(grading.Approved):                 grading.ApprovedThreshold.String(),
			string(grading.ApprovedWithObservations): grading.ObservationsThreshold.String(),
		},
		Criteria: r.Criteria,
	}
}
