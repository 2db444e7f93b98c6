package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/prolucid/identity-cassandra/internal/auth"
	"github.com/prolucid/identity-cassandra/internal/domain"
	"github.com/prolucid/identity-cassandra/internal/logging"
	"github.com/prolucid/identity-cassandra/internal/service"
)

type identityService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User, username, email string) error
	SetTwoFactor(ctx context.Context, u *domain.User, enabled bool) error
	Deactivate(ctx context.Context, u *domain.User) error
}

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AddLogin(ctx context.Context, login domain.Login) error
	RemoveLogin(ctx context.Context, login domain.Login) error
	ListLogins(ctx context.Context, userID uuid.UUID) ([]domain.Login, error)
	AddClaim(ctx context.Context, claim domain.Claim) error
	RemoveClaim(ctx context.Context, claim domain.Claim) error
	ListClaims(ctx context.Context, userID uuid.UUID) ([]domain.Claim, error)
}

type UserHandler struct {
	identity identityService
	users    userStore
}

func NewUserHandler(identity identityService, users userStore) *UserHandler {
	return &UserHandler{identity: identity, users: users}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" && r.Email == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username or email required"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return errs
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.identity.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to register user", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateProfile renames the account's username and email; clearing either is
// allowed when the other remains set.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Username == "" && req.Email == "" {
		RespondValidationError(w, []FieldError{{Field: "username", Message: "username or email required"}})
		return
	}

	if err := h.identity.UpdateProfile(r.Context(), user, req.Username, req.Email); err != nil {
		logging.FromContext(r.Context()).Error("failed to update profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

type twoFactorRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *UserHandler) SetTwoFactor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req twoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.identity.SetTwoFactor(r.Context(), user, req.Enabled); err != nil {
		logging.FromContext(r.Context()).Error("failed to set two-factor", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.identity.Deactivate(r.Context(), user); err != nil {
		logging.FromContext(r.Context()).Error("failed to deactivate user", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, nil)
}

type loginDTO struct {
	Provider    string `json:"provider"`
	ProviderKey string `json:"provider_key"`
}

func (l loginDTO) Validate() []FieldError {
	var errs []FieldError
	if l.Provider == "" {
		errs = append(errs, FieldError{Field: "provider", Message: "required"})
	}
	if l.ProviderKey == "" {
		errs = append(errs, FieldError{Field: "provider_key", Message: "required"})
	}
	return errs
}

func (h *UserHandler) AddLogin(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req loginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	login := domain.Login{UserID: userID, Provider: req.Provider, ProviderKey: req.ProviderKey}
	if err := h.users.AddLogin(r.Context(), login); err != nil {
		logging.FromContext(r.Context()).Error("failed to add login", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, req)
}

func (h *UserHandler) RemoveLogin(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req loginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	login := domain.Login{UserID: userID, Provider: req.Provider, ProviderKey: req.ProviderKey}
	if err := h.users.RemoveLogin(r.Context(), login); err != nil {
		logging.FromContext(r.Context()).Error("failed to remove login", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, nil)
}

func (h *UserHandler) ListLogins(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	logins, err := h.users.ListLogins(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list logins", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]loginDTO, 0, len(logins))
	for _, l := range logins {
		out = append(out, loginDTO{Provider: l.Provider, ProviderKey: l.ProviderKey})
	}
	RespondSuccess(w, http.StatusOK, out)
}

type claimDTO struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (c claimDTO) Validate() []FieldError {
	var errs []FieldError
	if c.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	}
	return errs
}

func (h *UserHandler) AddClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req claimDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	claim := domain.Claim{UserID: userID, Type: req.Type, Value: req.Value}
	if err := h.users.AddClaim(r.Context(), claim); err != nil {
		logging.FromContext(r.Context()).Error("failed to add claim", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, req)
}

func (h *UserHandler) RemoveClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req claimDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	claim := domain.Claim{UserID: userID, Type: req.Type, Value: req.Value}
	if err := h.users.RemoveClaim(r.Context(), claim); err != nil {
		logging.FromContext(r.Context()).Error("failed to remove claim", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, nil)
}

func (h *UserHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	claims, err := h.users.ListClaims(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list claims", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]claimDTO, 0, len(claims))
	for _, c := range claims {
		out = append(out, claimDTO{Type: c.Type, Value: c.Value})
	}
	RespondSuccess(w, http.StatusOK, out)
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	id, ok := callerID(w, r)
	if !ok {
		return nil, false
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load user", "error", err)
		RespondDomainError(w, err)
		return nil, false
	}
	return user, true
}
