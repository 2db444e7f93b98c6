package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/prolucid/identity-cassandra/internal/auth"
	"github.com/prolucid/identity-cassandra/internal/domain"
	"github.com/prolucid/identity-cassandra/internal/logging"
)

type authenticator interface {
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*domain.User, error)
}

type AuthHandler struct {
	identity  authenticator
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(identity authenticator, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		identity:  identity,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username,omitempty"`
	Email            string    `json:"email,omitempty"`
	EmailConfirmed   bool      `json:"email_confirmed"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		EmailConfirmed:   u.EmailConfirmed,
		PhoneNumber:      u.PhoneNumber,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// Login accepts a username or email plus password and returns a bearer
// token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Info("login rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}
