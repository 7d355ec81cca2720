package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tracker/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

func Test_GenerateSurveyToken(t *testing.T) {
	token, err := jwtService.GenerateSurveyToken(42, 7, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.SurveyID)
	assert.Equal(t, int64(7), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.Message(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateSurveyToken(42, 7, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer", "test-audience")
	token, err := other.GenerateSurveyToken(42, 7, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "somebody-else")
	token, err := other.GenerateSurveyToken(42, 7, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_UnscopedToken(t *testing.T) {
	token, err := jwtService.GenerateSurveyToken(0, 7, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.Equal(t, "token is not scoped to a survey", dErrors.Message(err))
}

func Test_MiddlewareAdapter(t *testing.T) {
	token, err := jwtService.GenerateSurveyToken(3, 9, time.Hour)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.SurveyID)
	assert.Equal(t, int64(9), claims.UserID)
}
