package answertype

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tracker/internal/survey/models"
)

const mealOptions = `[[10,"Breakfast"],[20,"Lunch"]]`

type RuleSuite struct {
	suite.Suite
}

func TestRuleSuite(t *testing.T) {
	suite.Run(t, new(RuleSuite))
}

func (s *RuleSuite) compile(kind, options, validations string) *Rule {
	q := models.Question{ID: 9, CategoryID: 4, AnswerType: kind, Validations: validations}
	if options != "" {
		q.Options = json.RawMessage(options)
	}
	rule, err := Compile(q)
	s.Require().NoError(err)
	return rule
}

func (s *RuleSuite) TestNumber() {
	rule := s.compile("number", "", "")

	s.Run("numeric strings normalize to numbers", func() {
		for raw, want := range map[string]string{
			`"42"`:    `42`,
			`" 3.5 "`: `3.5`,
			`7`:       `7`,
			`"-0.25"`: `-0.25`,
			`"1e3"`:   `1000`,
		} {
			value, item := rule.Validate(json.RawMessage(raw))
			s.Nil(item, raw)
			s.JSONEq(want, string(value), raw)
		}
	})

	s.Run("non-numeric answers report the answer type", func() {
		for _, raw := range []string{`"abc"`, `""`, `"."`, `"-"`, `null`, `"12abc"`, `true`} {
			value, item := rule.Validate(json.RawMessage(raw))
			s.Nil(value, raw)
			s.Require().NotNil(item, raw)
			s.Equal("number", item.ValidationName)
			s.Equal("Value is not a number", item.Message)
			s.Equal(models.QuestionID(9), item.QuestionID)
			s.Equal(models.CategoryID(4), item.CategoryID)
		}
	})
}

func (s *RuleSuite) TestIntegralNumbersPassIntInAnySpelling() {
	rule := s.compile("number", "", "non-negative int")

	for _, raw := range []string{`12`, `12.0`, `1.2e1`, `"12"`} {
		value, item := rule.Validate(json.RawMessage(raw))
		s.Nil(item, raw)
		s.JSONEq(`12`, string(value), raw)
	}

	value, item := rule.Validate(json.RawMessage(`12.5`))
	s.Nil(value)
	s.Require().NotNil(item)
	s.Equal("int", item.ValidationName)
}

func (s *RuleSuite) TestBoolean() {
	rule := s.compile("boolean", "", "")

	for raw, want := range map[string]string{
		`"true"`: "true", `true`: "true", `"1"`: "true", `1`: "true",
		`"false"`: "false", `false`: "false", `"0"`: "false", `0`: "false",
	} {
		value, item := rule.Validate(json.RawMessage(raw))
		s.Nil(item, raw)
		s.Equal(want, string(value), raw)
	}

	for _, raw := range []string{`"yes"`, `"TRUE"`, `2`, `""`} {
		_, item := rule.Validate(json.RawMessage(raw))
		s.Require().NotNil(item, raw)
		s.Equal("boolean", item.ValidationName)
	}
}

func (s *RuleSuite) TestText() {
	for _, kind := range []string{"shorttext", "longtext"} {
		rule := s.compile(kind, "", "")
		value, item := rule.Validate(json.RawMessage(`"  went to the park  "`))
		s.Nil(item)
		s.Equal(`"went to the park"`, string(value))

		value, item = rule.Validate(nil)
		s.Nil(item)
		s.Equal(`""`, string(value))
	}
}

func (s *RuleSuite) TestSelect() {
	rule := s.compile("select", mealOptions, "")

	s.Run("option value is stored as submitted", func() {
		value, item := rule.Validate(json.RawMessage(`20`))
		s.Nil(item)
		s.Equal(`20`, string(value))

		value, item = rule.Validate(json.RawMessage(`"20"`))
		s.Nil(item)
		s.Equal(`20`, string(value))
	})

	s.Run("unknown or malformed values are rejected", func() {
		for _, raw := range []string{`30`, `"Lunch"`, `[20]`, `null`} {
			_, item := rule.Validate(json.RawMessage(raw))
			s.Require().NotNil(item, raw)
			s.Equal("select", item.ValidationName)
			s.Equal("Value is not a valid option for this question", item.Message)
		}
	})
}

func (s *RuleSuite) TestMultiSelect() {
	rule := s.compile("multiselect", mealOptions, "")

	value, item := rule.Validate(json.RawMessage(`[10, 20]`))
	s.Nil(item)
	s.Equal(`[10,20]`, string(value))

	value, item = rule.Validate(json.RawMessage(`"[10,20]"`))
	s.Nil(item)
	s.Equal(`[10,20]`, string(value))

	for _, raw := range []string{`[10, 99]`, `10`, `"[10"`, `["a"]`, `null`} {
		_, item := rule.Validate(json.RawMessage(raw))
		s.Require().NotNil(item, raw)
		s.Equal("multiselect", item.ValidationName)
		s.Equal("Value has one or more invalid options for this question", item.Message)
	}
}

func (s *RuleSuite) TestConstraintsRunAfterType() {
	rule := s.compile("number", "", "non-negative int")

	_, item := rule.Validate(json.RawMessage(`"abc"`))
	s.Require().NotNil(item)
	s.Equal("number", item.ValidationName)

	_, item = rule.Validate(json.RawMessage(`"-2"`))
	s.Require().NotNil(item)
	s.Equal("non-negative", item.ValidationName)
	s.Equal("Value must be zero or greater", item.Message)

	_, item = rule.Validate(json.RawMessage(`"2.5"`))
	s.Require().NotNil(item)
	s.Equal("int", item.ValidationName)
	s.Equal("Value is not an integer", item.Message)

	value, item := rule.Validate(json.RawMessage(`"3"`))
	s.Nil(item)
	s.Equal(`3`, string(value))
}

func (s *RuleSuite) TestRequiredText() {
	rule := s.compile("shorttext", "", "required")

	_, item := rule.Validate(json.RawMessage(`"   "`))
	s.Require().NotNil(item)
	s.Equal("required", item.ValidationName)
	s.Equal("Value is required", item.Message)

	_, item = rule.Validate(json.RawMessage(`"ok"`))
	s.Nil(item)
}

func TestCompileRejectsMisconfiguredQuestions(t *testing.T) {
	cases := map[string]models.Question{
		"unknown type":          {ID: 1, AnswerType: "date"},
		"select without opts":   {ID: 2, AnswerType: "select"},
		"select with bad opts":  {ID: 3, AnswerType: "select", Options: json.RawMessage(`[[10]]`)},
		"multiselect null opts": {ID: 4, AnswerType: "multiselect", Options: json.RawMessage(`null`)},
		"empty options":         {ID: 5, AnswerType: "select", Options: json.RawMessage(`[]`)},
		"unknown validation":    {ID: 6, AnswerType: "number", Validations: "int even"},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			rule, err := Compile(q)
			assert.Nil(t, rule)
			assert.ErrorIs(t, err, models.ErrQuestionMisconfigured)
		})
	}
}

func TestStringForm(t *testing.T) {
	assert.Equal(t, "", StringForm(nil))
	assert.Equal(t, "", StringForm(json.RawMessage(" null ")))
	assert.Equal(t, "hi", StringForm(json.RawMessage(`"  hi "`)))
	assert.Equal(t, "[10,20]", StringForm(json.RawMessage("[ 10, 20 ]")))
	assert.Equal(t, "12.5", StringForm(json.RawMessage("12.5")))
	assert.Equal(t, "12", StringForm(json.RawMessage("12.0")))
	assert.Equal(t, "12", StringForm(json.RawMessage("1.2e1")))
	assert.Equal(t, "-0.5", StringForm(json.RawMessage("-5E-1")))
}

func TestOptionRoundTrip(t *testing.T) {
	var opts []Option
	require.NoError(t, json.Unmarshal([]byte(mealOptions), &opts))
	require.Len(t, opts, 2)
	assert.Equal(t, Option{Value: 20, Label: "Lunch"}, opts[1])

	out, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, mealOptions, string(out))
}
