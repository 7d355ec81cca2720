package answertype

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"tracker/internal/survey/models"
)

// Constraint is one named extra check a question can attach to its answers.
type Constraint uint8

const (
	Alpha Constraint = iota + 1
	Alphanumeric
	Decimal
	Email
	Float
	Int
	Numeric
	Required
	Positive
	NonNegative
)

var (
	decimalPattern = regexp.MustCompile(`^[-+]?([0-9]+)?(\.[0-9]+)?$`)
	intPattern     = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)$`)

	// validate is safe for concurrent use and caches parsed tags.
	validate = validator.New()
)

type constraintSpec struct {
	name    string
	message string
	check   func(form string) bool
}

var constraintSpecs = map[Constraint]constraintSpec{
	Alpha:        {"alpha", "Value is not alphabetic", tag("alpha")},
	Alphanumeric: {"alphanumeric", "Value is not alphanumeric", tag("alphanum")},
	Decimal:      {"decimal", "Value is not a valid number", isDecimal},
	Email:        {"email", "Value is not a valid email address", tag("email")},
	Float:        {"float", "Value is not a valid number", isFloat},
	Int:          {"int", "Value is not an integer", intPattern.MatchString},
	Numeric:      {"numeric", "Value is not numeric", tag("numeric")},
	Required:     {"required", "Value is required", func(form string) bool { return form != "" }},
	Positive: {"positive", "Value must be greater than zero", func(form string) bool {
		f, ok := parseFloat(form)
		return ok && f > 0
	}},
	NonNegative: {"non-negative", "Value must be zero or greater", func(form string) bool {
		f, ok := parseFloat(form)
		return ok && f >= 0
	}},
}

var constraintsByName = func() map[string]Constraint {
	m := make(map[string]Constraint, len(constraintSpecs))
	for c, spec := range constraintSpecs {
		m[spec.name] = c
	}
	return m
}()

func tag(name string) func(string) bool {
	return func(form string) bool {
		return validate.Var(form, name) == nil
	}
}

func isFloat(form string) bool {
	_, ok := parseFloat(form)
	return ok
}

func isDecimal(form string) bool {
	switch form {
	case "", ".", "-", "+":
		return false
	}
	return decimalPattern.MatchString(form)
}

// Name is the constraint's name as written in a question's validations.
func (c Constraint) Name() string { return constraintSpecs[c].name }

// Message is the client-facing failure message.
func (c Constraint) Message() string { return constraintSpecs[c].message }

// Check reports whether the answer's string form satisfies c.
func (c Constraint) Check(form string) bool {
	spec, ok := constraintSpecs[c]
	return ok && spec.check(form)
}

func (c Constraint) String() string { return c.Name() }

// ParseConstraints splits a whitespace separated validations string.
// An unknown name means the question definition is corrupt.
func ParseConstraints(validations string) ([]Constraint, error) {
	names := strings.Fields(validations)
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]Constraint, 0, len(names))
	for _, name := range names {
		c, ok := constraintsByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown validation %q", models.ErrQuestionMisconfigured, name)
		}
		out = append(out, c)
	}
	return out, nil
}
