package answertype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tracker/internal/survey/models"
)

// Rule is a compiled question: its typed answer kind and parsed constraints.
type Rule struct {
	QuestionID  models.QuestionID
	CategoryID  models.CategoryID
	Type        AnswerType
	Constraints []Constraint
}

// Compile turns a stored question into a Rule. Errors wrap
// models.ErrQuestionMisconfigured.
func Compile(q models.Question) (*Rule, error) {
	t, err := Parse(q.AnswerType, q.Options)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	constraints, err := ParseConstraints(q.Validations)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	return &Rule{
		QuestionID:  q.ID,
		CategoryID:  q.CategoryID,
		Type:        t,
		Constraints: constraints,
	}, nil
}

// Validate checks one raw answer. It returns the normalized value, or the
// item describing the first check that failed.
func (r *Rule) Validate(raw json.RawMessage) (json.RawMessage, *models.ValidationItem) {
	form := StringForm(raw)

	value, ok := r.Type.normalize(form)
	if !ok {
		return nil, r.failure(r.Type.Kind(), r.Type.failureMessage())
	}
	for _, c := range r.Constraints {
		if !c.Check(form) {
			return nil, r.failure(c.Name(), c.Message())
		}
	}
	return value, nil
}

func (r *Rule) failure(name, message string) *models.ValidationItem {
	return &models.ValidationItem{
		CategoryID:     r.CategoryID,
		QuestionID:     r.QuestionID,
		ValidationName: name,
		Message:        message,
	}
}

// StringForm is the text every check runs against: a JSON string answer is
// unquoted and trimmed, null or absent becomes empty, a number is written in
// its shortest plain decimal form, anything else is its compact JSON encoding.
func StringForm(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
