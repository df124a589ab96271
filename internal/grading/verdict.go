package grading

import "github.com/shopspring/decimal"

type Verdict string

const (
	Approved                 Verdict = "Aprobado"
	ApprovedWithObservations Verdict = "Aprobado con observaciones"
	NotApproved              Verdict = "No aprobado"
)

// Thresholds are fixed; a rubric file may only restate them.
var (
	ApprovedThreshold     = decimal.NewFromInt(60)
	ObservationsThreshold = decimal.NewFromInt(50)
)

// VerdictFor maps a weighted percentage to its verdict. Boundaries are
// closed below: exactly 60 approves, exactly 50 approves with observations.
func VerdictFor(pct decimal.Decimal) Verdict {
	switch {
	case pct.GreaterThanOrEqual(ApprovedThreshold):
		return Approved
	case pct.GreaterThanOrEqual(ObservationsThreshold):
		return ApprovedWithObservations
	default:
		return NotApproved
	}
}

// Upper returns the all-caps label used in exported documents.
func (v Verdict) Upper() string {
	switch v {
	case Approved:
		return "APROBADO"
	case ApprovedWithObservations:
		return "APROBADO CON OBSERVACIONES"
	case NotApproved:
		return "NO APROBADO"
	}
	return string(v)
}
