// Package export renders a scored evaluation as downloadable Excel and Word files.
package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
)

type Format string

const (
	FormatExcel Format = "excel"
	FormatWord  Format = "word"
)

// ParseFormat accepts the names used in download URLs.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatExcel, FormatWord:
		return Format(s), true
	}
	return "", false
}

func (f Format) Filename() string {
	if f == FormatExcel {
		return "valoracion_informe_final.xlsx"
	}
	return "dictamen_informe_final.docx"
}

func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return extract.MIMEDOCX
}

const DefaultExcerptChars = 2500

// Report is everything an exported artifact shows.
type Report struct {
	Institution  string
	Rubric       *grading.Rubric
	Sheet        grading.ScoreSheet
	Result       grading.Result
	Document     extract.Document
	GeneratedAt  time.Time
	ExcerptChars int
}

// ExportError reports a rendering failure. Nothing is kept server-side, so
// the evaluator can simply retry.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// Render dispatches to the renderer for f.
func Render(f Format, rep Report) ([]byte, error) {
	switch f {
	case FormatExcel:
		return Excel(rep)
	case FormatWord:
		return Word(rep)
	}
	return nil, &ExportError{Format: f, Err: fmt.Errorf("unknown format %q", f)}
}

func (rep Report) title() string {
	if rep.Institution == "" {
		return rep.Rubric.Title
	}
	return rep.Institution + " – " + rep.Rubric.Title
}

func (rep Report) date() string { return rep.GeneratedAt.Format("2006-01-02 15:04") }

// weightPercent shows a weight in percentage points whatever the rubric unit.
func (rep Report) weightPercent(w decimal.Decimal) decimal.Decimal {
	return rep.Rubric.Unit.Percent(w)
}

func (rep Report) excerpt() string {
	n := rep.ExcerptChars
	if n <= 0 {
		n = DefaultExcerptChars
	}
	if rep.Document.Chars <= n {
		return rep.Document.Text
	}
	return rep.Document.Preview(n) + "..."
}
