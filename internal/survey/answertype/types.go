// Package answertype compiles stored question definitions into typed rules
// and validates submitted answers against them.
package answertype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"tracker/internal/survey/models"
)

// AnswerType is the closed set of answer kinds a question can declare.
// Only the variants in this package implement it.
type AnswerType interface {
	Kind() string
	normalize(form string) (json.RawMessage, bool)
	failureMessage() string
}

type (
	Number      struct{}
	Boolean     struct{}
	ShortText   struct{}
	LongText    struct{}
	Select      struct{ Options []Option }
	MultiSelect struct{ Options []Option }
)

// Option is one (value, label) choice of a select or multiselect question.
// It is stored as a two element JSON array.
type Option struct {
	Value float64
	Label string
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("option must be a [value, label] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Value); err != nil {
		return fmt.Errorf("option value: %w", err)
	}
	if err := json.Unmarshal(pair[1], &o.Label); err != nil {
		return fmt.Errorf("option label: %w", err)
	}
	return nil
}

func (o Option) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.Value, o.Label})
}

// Parse builds the AnswerType for a stored kind. It is the only place an
// unknown kind or broken option list is detected.
func Parse(kind string, options json.RawMessage) (AnswerType, error) {
	switch kind {
	case "number":
		return Number{}, nil
	case "boolean":
		return Boolean{}, nil
	case "shorttext":
		return ShortText{}, nil
	case "longtext":
		return LongText{}, nil
	case "select":
		opts, err := parseOptions(options)
		if err != nil {
			return nil, err
		}
		return Select{Options: opts}, nil
	case "multiselect":
		opts, err := parseOptions(options)
		if err != nil {
			return nil, err
		}
		return MultiSelect{Options: opts}, nil
	default:
		return nil, fmt.Errorf("%w: unknown answer type %q", models.ErrQuestionMisconfigured, kind)
	}
}

func parseOptions(raw json.RawMessage) ([]Option, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: options are required", models.ErrQuestionMisconfigured)
	}
	var opts []Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("%w: malformed options: %v", models.ErrQuestionMisconfigured, err)
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("%w: options are empty", models.ErrQuestionMisconfigured)
	}
	return opts, nil
}

func (Number) Kind() string      { return "number" }
func (Boolean) Kind() string     { return "boolean" }
func (ShortText) Kind() string   { return "shorttext" }
func (LongText) Kind() string    { return "longtext" }
func (Select) Kind() string      { return "select" }
func (MultiSelect) Kind() string { return "multiselect" }

func (Number) failureMessage() string      { return "Value is not a number" }
func (Boolean) failureMessage() string     { return "Value is not a boolean" }
func (ShortText) failureMessage() string   { return "" }
func (LongText) failureMessage() string    { return "" }
func (Select) failureMessage() string      { return "Value is not a valid option for this question" }
func (MultiSelect) failureMessage() string { return "Value has one or more invalid options for this question" }

// floatPattern accepts the same strings as a float check in JS validator
// libraries: optional sign, digits, fraction and exponent.
var floatPattern = regexp.MustCompile(`^[-+]?[0-9]*(\.[0-9]*)?([eE][-+]?[0-9]+)?$`)

func parseFloat(form string) (float64, bool) {
	switch form {
	case "", ".", "-", "+":
		return 0, false
	}
	if !floatPattern.MatchString(form) {
		return 0, false
	}
	f, err := strconv.ParseFloat(form, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (Number) normalize(form string) (json.RawMessage, bool) {
	f, ok := parseFloat(form)
	if !ok {
		return nil, false
	}
	out, err := json.Marshal(f)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (Boolean) normalize(form string) (json.RawMessage, bool) {
	switch form {
	case "true", "1":
		return json.RawMessage("true"), true
	case "false", "0":
		return json.RawMessage("false"), true
	}
	return nil, false
}

func textValue(form string) (json.RawMessage, bool) {
	out, err := json.Marshal(form)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (ShortText) normalize(form string) (json.RawMessage, bool) { return textValue(form) }
func (LongText) normalize(form string) (json.RawMessage, bool)  { return textValue(form) }

// Select stores the answer in its submitted encoding once it matches an option.
func (t Select) normalize(form string) (json.RawMessage, bool) {
	var v float64
	if err := json.Unmarshal([]byte(form), &v); err != nil {
		return nil, false
	}
	if !hasOption(t.Options, v) {
		return nil, false
	}
	return json.RawMessage(form), true
}

func (t MultiSelect) normalize(form string) (json.RawMessage, bool) {
	var values []float64
	if err := json.Unmarshal([]byte(form), &values); err != nil || values == nil {
		return nil, false
	}
	for _, v := range values {
		if !hasOption(t.Options, v) {
			return nil, false
		}
	}
	out, err := json.Marshal(values)
	if err != nil {
		return nil, false
	}
	return out, true
}

func hasOption(opts []Option, v float64) bool {
	return slices.ContainsFunc(opts, func(o Option) bool { return o.Value == v })
}
