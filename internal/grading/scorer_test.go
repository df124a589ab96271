package grading

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rubricWithWeights builds an eleven-criterion rubric c1..c11 with the given weights.
func rubricWithWeights(t *testing.T, weights ...string) *Rubric {
	t.Helper()
	require.Len(t, weights, CriteriaCount)
	var b strings.Builder
	b.WriteString("title: test\ncriteria:\n")
	for i, w := range weights {
		fmt.Fprintf(&b, "  - id: c%d\n    label: Criterio %d\n    weight: %s\n", i+1, i+1, w)
	}
	r, err := ParseRubric([]byte(b.String()))
	require.NoError(t, err)
	return r
}

func uniformSheet(r *Rubric, score int) ScoreSheet {
	s := ScoreSheet{Scores: map[string]int{}}
	for _, c := range r.Criteria {
		s.Scores[c.ID] = score
	}
	return s
}

// onlyFirst scores the first criterion 4 and everything else 0.
func onlyFirst(r *Rubric) ScoreSheet {
	s := uniformSheet(r, 0)
	s.Scores[r.Criteria[0].ID] = MaxScore
	return s
}

func TestScore_AllZeroAndAllMax(t *testing.T) {
	r := DefaultRubric()

	res, err := Score(uniformSheet(r, 0), r)
	require.NoError(t, err)
	assert.True(t, res.Percentage.IsZero())
	assert.Equal(t, NotApproved, res.Verdict)
	assert.Equal(t, 0, res.RawTotal)

	res, err = Score(uniformSheet(r, MaxScore), r)
	require.NoError(t, err)
	assert.True(t, res.Percentage.Equal(decimal.NewFromInt(100)), "got %s", res.Percentage)
	assert.Equal(t, Approved, res.Verdict)
	assert.Equal(t, 44, res.RawTotal)
	assert.Equal(t, 44, res.MaxRawTotal)
	assert.Equal(t, "100.00", res.Display())
}

func TestScore_Boundaries(t *testing.T) {
	rest := []string{"4", "4", "4", "4", "4", "4", "4", "4", "4"}
	tests := []struct {
		name    string
		first   string
		second  string
		want    Verdict
		display string
	}{
		{"exactly 60", "60", "4", Approved, "60.00"},
		{"59.99", "59.99", "4.01", ApprovedWithObservations, "59.99"},
		{"exactly 50", "50", "14", ApprovedWithObservations, "50.00"},
		{"49.99", "49.99", "14.01", NotApproved, "49.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rubricWithWeights(t, append([]string{tt.first, tt.second}, rest...)...)
			res, err := Score(onlyFirst(r), r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Verdict)
			assert.Equal(t, tt.display, res.Display())
		})
	}
}

func TestScore_NoFloatDriftAtThreshold(t *testing.T) {
	// 0.1 + 0.2 style weights: in float64 the 60% case lands on 59.99999...
	r := rubricWithWeights(t, "0.1", "0.2", "0.3", "0.04", "0.04", "0.04", "0.04", "0.06", "0.06", "0.06", "0.06")
	require.Equal(t, UnitFraction, r.Unit)

	s := uniformSheet(r, 0)
	s.Scores["c1"], s.Scores["c2"], s.Scores["c3"] = 4, 4, 4
	res, err := Score(s, r)
	require.NoError(t, err)
	assert.True(t, res.Percentage.Equal(decimal.NewFromInt(60)), "got %s", res.Percentage)
	assert.Equal(t, Approved, res.Verdict)
}

func TestScore_TruncatedDisplayNeverReachesThreshold(t *testing.T) {
	res := Result{Percentage: decimal.RequireFromString("59.999999999")}
	assert.Equal(t, "59.99", res.Display())
	assert.Equal(t, ApprovedWithObservations, VerdictFor(res.Percentage))
}

func TestScore_FractionMatchesPercent(t *testing.T) {
	pct := rubricWithWeights(t, "5", "15", "12", "15", "8", "8", "8", "7", "7", "5", "10")
	frac := rubricWithWeights(t, "0.05", "0.15", "0.12", "0.15", "0.08", "0.08", "0.08", "0.07", "0.07", "0.05", "0.10")

	sheet := ScoreSheet{Scores: map[string]int{
		"c1": 4, "c2": 3, "c3": 2, "c4": 1, "c5": 0, "c6": 4, "c7": 3, "c8": 2, "c9": 1, "c10": 0, "c11": 3,
	}}
	a, err := Score(sheet, pct)
	require.NoError(t, err)
	b, err := Score(sheet, frac)
	require.NoError(t, err)
	assert.True(t, a.Percentage.Equal(b.Percentage), "%s != %s", a.Percentage, b.Percentage)
	assert.Equal(t, a.Verdict, b.Verdict)
	assert.Equal(t, 23, a.RawTotal)
}

func TestWeightUnit_Percent(t *testing.T) {
	w := decimal.RequireFromString("0.15")
	assert.Equal(t, "15", UnitFraction.Percent(w).String())
	assert.Equal(t, "0.15", UnitPercent.Percent(w).String())
}

func TestScore_PercentageInRange(t *testing.T) {
	r := DefaultRubric()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		s := ScoreSheet{Scores: map[string]int{}}
		for _, c := range r.Criteria {
			s.Scores[c.ID] = rng.Intn(MaxScore + 1)
		}
		res, err := Score(s, r)
		require.NoError(t, err)
		assert.False(t, res.Percentage.IsNegative())
		assert.True(t, res.Percentage.LessThanOrEqual(decimal.NewFromInt(100)))
		assert.Equal(t, VerdictFor(res.Percentage), res.Verdict)
	}
}

func TestScore_Idempotent(t *testing.T) {
	r := DefaultRubric()
	s := uniformSheet(r, 3)
	a, err := Score(s, r)
	require.NoError(t, err)
	b, err := Score(s, r)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "75.00", a.Display())
}

func TestScore_InvalidSheet(t *testing.T) {
	r := DefaultRubric()

	t.Run("missing criterion", func(t *testing.T) {
		s := uniformSheet(r, 2)
		delete(s.Scores, "metodologia")
		res, err := Score(s, r)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, Result{}, res)
		require.Len(t, verr.Problems, 1)
		assert.Equal(t, "metodologia", verr.Problems[0].Field)
	})

	t.Run("score above max", func(t *testing.T) {
		s := uniformSheet(r, 2)
		s.Scores["impacto"] = 5
		res, err := Score(s, r)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, Result{}, res)
		assert.Contains(t, err.Error(), "impacto: score 5 out of range")
	})

	t.Run("negative and unknown", func(t *testing.T) {
		s := uniformSheet(r, 2)
		s.Scores["objetivos"] = -1
		s.Scores["bogus"] = 2
		_, err := Score(s, r)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Problems, 2)
	})

	t.Run("nil scores", func(t *testing.T) {
		_, err := Score(ScoreSheet{}, r)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Problems, CriteriaCount)
	})
}

func TestStrengthsAndImprovements(t *testing.T) {
	r := DefaultRubric()
	s := uniformSheet(r, 2)
	s.Scores["objetivos"] = 4
	s.Scores["resultados"] = 3
	s.Scores["difusion"] = 1
	s.Scores["impacto"] = 0
	res, err := Score(s, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cumplimiento de los objetivos", "Resultados obtenidos"}, Strengths(res))
	assert.Equal(t, []string{"Acciones de difusión científica", "Impacto y conclusiones"}, Improvements(res))
}
