package grading

import "github.com/shopspring/decimal"

// MaxScore is the top of the 0-4 scale every criterion is scored on.
const MaxScore = 4

// CriteriaCount is the number of criteria a rubric must define.
const CriteriaCount = 11

// WeightUnit tells how criterion weights are expressed.
type WeightUnit string

const (
	UnitPercent  WeightUnit = "percent"  // weights sum to 100
	UnitFraction WeightUnit = "fraction" // weights sum to 1
)

// Percent expresses a weight in this unit as percentage points.
func (u WeightUnit) Percent(w decimal.Decimal) decimal.Decimal {
	if u == UnitFraction {
		return w.Mul(hundred)
	}
	return w
}

type Criterion struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Weight   decimal.Decimal `json:"weight"`
	Keywords []string        `json:"keywords,omitempty"`
}

// Rubric is an ordered, validated set of criteria. Build it with ParseRubric,
// LoadRubric or DefaultRubric; a zero Rubric is not usable.
type Rubric struct {
	Title    string      `json:"title"`
	Criteria []Criterion `json:"criteria"`
	Unit     WeightUnit  `json:"unit"`

	source []byte
}

func (r *Rubric) Criterion(id string) (Criterion, bool) {
	for _, c := range r.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

func (r *Rubric) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Criteria {
		total = total.Add(c.Weight)
	}
	return total
}

// Source returns the configuration bytes the rubric was parsed from.
func (r *Rubric) Source() []byte {
	out := make([]byte, len(r.source))
	copy(out, r.source)
	return out
}
