package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prolucid/identity-cassandra/internal/auth"
	"github.com/prolucid/identity-cassandra/internal/domain"
)

const testJWTSecret = "test-jwt-secret"

type stubAuthenticator struct {
	user *domain.User
	err  error

	gotUsername string
	gotPassword string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, usernameOrEmail, password string) (*domain.User, error) {
	s.gotUsername = usernameOrEmail
	s.gotPassword = password
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func postLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	user := domain.NewUser("alice", "alice@test.com")
	stub := &stubAuthenticator{user: user}
	h := NewAuthHandler(stub, testJWTSecret, time.Hour)

	rec := postLogin(t, h, `{"username":"alice","password":"hunter22"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", stub.gotUsername)
	assert.Equal(t, "hunter22", stub.gotPassword)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)

	claims, err := auth.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		authErr    error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid credentials",
			body:       `{"username":"alice","password":"wrong"}`,
			authErr:    domain.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "locked out",
			body:       `{"username":"alice","password":"hunter22"}`,
			authErr:    domain.ErrLockedOut,
			wantStatus: http.StatusForbidden,
			wantCode:   "ACCOUNT_LOCKED",
		},
		{
			name:       "missing fields",
			body:       `{"username":"alice"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthenticator{user: domain.NewUser("alice", ""), err: tt.authErr}
			h := NewAuthHandler(stub, testJWTSecret, time.Hour)

			rec := postLogin(t, h, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
