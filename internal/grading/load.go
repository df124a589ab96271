package grading

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed rubric_final.yaml
var defaultRubricYAML []byte

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// number decodes a YAML scalar straight into a decimal so weights like 0.1
// keep their written value instead of the nearest float64.
type number struct {
	decimal.Decimal
}

func (n *number) UnmarshalYAML(v *yaml.Node) error {
	if v.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", v.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.Value))
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", v.Line, v.Value)
	}
	n.Decimal = d
	return nil
}

type scaleFile struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type thresholdsFile struct {
	Approved     *number `yaml:"aprobado"`
	Observations *number `yaml:"aprobado_obs"`
}

type criterionFile struct {
	ID       string   `yaml:"id" validate:"required,max=64,lowercase,excludesall= /"`
	Label    string   `yaml:"label" validate:"required"`
	Weight   *number  `yaml:"weight" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"dive,required"`
}

type rubricFile struct {
	Title      string          `yaml:"title"`
	Scale      *scaleFile      `yaml:"scale"`
	Thresholds *thresholdsFile `yaml:"thresholds"`
	Criteria   []criterionFile `yaml:"criteria" validate:"required,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultRubric returns the rubric shipped with the binary.
func DefaultRubric() *Rubric {
	r, err := ParseRubric(defaultRubricYAML)
	if err != nil {
		panic("grading: embedded rubric is invalid: " + err.Error())
	}
	return r
}

// LoadRubric reads and validates a rubric file.
func LoadRubric(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric %s: %w", path, err)
	}
	r, err := ParseRubric(data)
	if err != nil {
		return nil, fmt.Errorf("rubric %s: %w", path, err)
	}
	return r, nil
}

// ParseRubric decodes a YAML rubric and enforces its invariants: exactly
// eleven uniquely identified criteria on a 0-4 scale whose weights sum to 100
// (or to 1 for fractional weights). Any violation is a *ValidationError.
func ParseRubric(data []byte) (*Rubric, error) {
	var f rubricFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "file is empty"
		}
		return nil, &ValidationError{Subject: "rubric", Problems: []FieldError{{Field: "yaml", Message: msg}}}
	}

	verr := &ValidationError{Subject: "rubric"}
	if err := validate.Struct(f); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return nil, fmt.Errorf("validate rubric: %w", err)
		}
		for _, fe := range ves {
			verr.add(fieldPath(fe.Namespace()), "%s", describeTag(fe))
		}
	}

	if n := len(f.Criteria); n != CriteriaCount {
		verr.add("criteria", "expected %d criteria, found %d", CriteriaCount, n)
	}
	if f.Scale != nil && (f.Scale.Min != 0 || f.Scale.Max != MaxScore) {
		verr.add("scale", "scale is fixed at 0-%d, found %d-%d", MaxScore, f.Scale.Min, f.Scale.Max)
	}

	r := &Rubric{Title: strings.TrimSpace(f.Title), source: append([]byte(nil), data...)}
	if r.Title == "" {
		r.Title = "Valoración de Informe Final"
	}
	seen := make(map[string]int, len(f.Criteria))
	for i, cf := range f.Criteria {
		field := fmt.Sprintf("criteria[%d]", i)
		if prev, dup := seen[cf.ID]; dup && cf.ID != "" {
			verr.add(field+".id", "duplicate id %q (also criteria[%d])", cf.ID, prev)
		}
		seen[cf.ID] = i
		c := Criterion{ID: cf.ID, Label: strings.TrimSpace(cf.Label), Keywords: cf.Keywords}
		if cf.Weight != nil {
			c.Weight = cf.Weight.Decimal
			if c.Weight.IsNegative() {
				verr.add(field+".weight", "must not be negative")
			}
		}
		r.Criteria = append(r.Criteria, c)
	}

	switch total := r.TotalWeight(); {
	case total.Equal(hundred):
		r.Unit = UnitPercent
	case total.Equal(one):
		r.Unit = UnitFraction
	default:
		verr.add("criteria.weight", "weights sum to %s, expected 100 (or 1 for fractional weights)", total.String())
	}

	if f.Thresholds != nil {
		checkThreshold(verr, "thresholds.aprobado", f.Thresholds.Approved, ApprovedThreshold)
		checkThreshold(verr, "thresholds.aprobado_obs", f.Thresholds.Observations, ObservationsThreshold)
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// checkThreshold accepts a declared threshold only if it restates the fixed
// value, either as a percentage or as a fraction.
func checkThreshold(verr *ValidationError, field string, got *number, want decimal.Decimal) {
	if got == nil {
		return
	}
	if got.Equal(want) || got.Mul(hundred).Equal(want) {
		return
	}
	verr.add(field, "thresholds are fixed at %s%%, found %s", want.String(), got.String())
}

func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "lowercase":
		return "must be lowercase"
	case "excludesall":
		return "must not contain spaces or slashes"
	default:
		return "failed " + fe.Tag() + " constraint"
	}
}
