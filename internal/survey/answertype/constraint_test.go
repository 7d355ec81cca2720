package answertype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/survey/models"
)

func TestParseConstraints(t *testing.T) {
	got, err := ParseConstraints("  required\tnon-negative  int ")
	require.NoError(t, err)
	assert.Equal(t, []Constraint{Required, NonNegative, Int}, got)

	got, err = ParseConstraints("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseConstraints("required Required")
	assert.ErrorIs(t, err, models.ErrQuestionMisconfigured)
}

func TestConstraintChecks(t *testing.T) {
	cases := []struct {
		c    Constraint
		pass []string
		fail []string
	}{
		{Alpha, []string{"abc", "ABC"}, []string{"", "ab1", "a b"}},
		{Alphanumeric, []string{"abc123"}, []string{"", "abc-1"}},
		{Decimal, []string{"1", "-1.5", ".5"}, []string{"", ".", "1.", "1e3", "x"}},
		{Email, []string{"worker@example.org"}, []string{"worker@", "plain"}},
		{Float, []string{"1", "1.", "-2.5e3"}, []string{"", "+", "1,5"}},
		{Int, []string{"0", "-12", "+7"}, []string{"01", "1.0", ""}},
		{Numeric, []string{"12", "-3.5"}, []string{"", "1e3", "abc"}},
		{Required, []string{"x"}, []string{""}},
		{Positive, []string{"0.1", "4"}, []string{"0", "-1", "abc"}},
		{NonNegative, []string{"0", "4.5"}, []string{"-0.1", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.c.Name(), func(t *testing.T) {
			for _, form := range tc.pass {
				assert.True(t, tc.c.Check(form), "%s should accept %q", tc.c, form)
			}
			for _, form := range tc.fail {
				assert.False(t, tc.c.Check(form), "%s should reject %q", tc.c, form)
			}
			assert.NotEmpty(t, tc.c.Message())
		})
	}
}

func TestEveryConstraintRoundTripsByName(t *testing.T) {
	for c := Alpha; c <= NonNegative; c++ {
		parsed, err := ParseConstraints(c.Name())
		require.NoError(t, err)
		assert.Equal(t, []Constraint{c}, parsed)
	}
}
