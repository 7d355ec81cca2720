package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to save survey submission")

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternal))
	assert.Equal(t, "failed to save survey submission", Message(err))
	assert.Equal(t, "failed to save survey submission: connection reset", err.Error())
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("submit: %w", New(CodeConflict, "survey is not open"))

	assert.True(t, Is(err, CodeConflict))
	assert.False(t, Is(err, CodeBadRequest))

	_, ok := CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeValidation:   http.StatusUnprocessableEntity,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, want, ToHTTPStatus(code))
		})
	}
}
