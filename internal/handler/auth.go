package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/service"
)

// AccountService is the slice of service.AuthService the account handlers
// need. Tests substitute a fake.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	WhoAmI(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler serves account creation, login and the current-user lookup.
//
//   - HandleCreateAccount → POST /create-account
//   - HandleLogin         → POST /login
//   - HandleGetUser       → GET  /get-user (behind auth.RequireAuth)
type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAuthHandler(accounts AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

type createAccountResponse struct {
	Error       bool             `json:"error"`
	User        model.PublicUser `json:"user"`
	AccessToken string           `json:"accessToken"`
	Message     string           `json:"message"`
}

type loginResponse struct {
	Error       bool   `json:"error"`
	Message     string `json:"message"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
}

type getUserResponse struct {
	User    model.PublicUser `json:"user"`
	Message string           `json:"message"`
}

// HandleCreateAccount registers a user and signs them in.
//
// HTTP: POST /create-account
// REQUEST BODY: {"fullName": "Ann Smith", "email": "ann@example.com", "password": "secret"}
func (h *AuthHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, createAccountResponse{
		Error:       false,
		User:        res.User.Public(),
		AccessToken: res.Token,
		Message:     "Registration Successful",
	})
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /login
// REQUEST BODY: {"email": "ann@example.com", "password": "secret"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Error:       false,
		Message:     "Login Successful",
		Email:       res.User.Email,
		AccessToken: res.Token,
	})
}

// HandleGetUser returns the profile of the authenticated caller.
//
// HTTP: GET /get-user
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthenticated())
		return
	}

	user, err := h.accounts.WhoAmI(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, getUserResponse{
		User:    user.Public(),
		Message: "",
	})
}
