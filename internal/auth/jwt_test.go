package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "alice", testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateToken(t *testing.T) {
	userID := uuid.New()

	validToken, err := GenerateToken(userID, "alice", testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(userID, "alice", testSecret, -1*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestGenerateToken_EmptyUsername(t *testing.T) {
	// Email-only accounts have no username; the token still round-trips.
	userID := uuid.New()

	token, err := GenerateToken(userID, "", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Empty(t, claims.Username)
}
