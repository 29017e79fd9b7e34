package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"notification_service/internal/auth"
	"notification_service/internal/models"
)

type AuthHandler struct {
	auth auth.Service
	log  *slog.Logger
}

func NewAuthHandler(authService auth.Service, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth: authService,
		log:  log,
	}
}

type registerRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type registerResponse struct {
	UserID int64          `json:"user_id"`
	Tokens auth.TokenPair `json:"tokens"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func validateCredentials(username, password string) []fieldError {
	var problems []fieldError

	if n := utf8.RuneCountInString(username); n < 3 || n > 32 {
		problems = append(problems, fieldError{Field: "username", Message: "must be between 3 and 32 characters"})
	}
	if password == "" {
		problems = append(problems, fieldError{Field: "password", Message: "must not be empty"})
	}

	return problems
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}

	if problems := validateCredentials(req.Username, req.Password); problems != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Validation error", problems)
		return
	}

	user, tokens, err := h.auth.Register(ctx, req.Username, req.Password, req.AvatarURL)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserExists):
			WriteError(w, r, http.StatusConflict, "user_exists", "User already exists", nil)
		case errors.Is(err, models.ErrWeakPassword):
			WriteError(w, r, http.StatusBadRequest, "password_weak",
				"The password must contain numbers, letters in both cases and special characters", nil)
		default:
			h.log.Error("failed to register user", slog.Any("error", err))
			writeInternalError(w, r)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, registerResponse{UserID: user.ID, Tokens: tokens})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}

	if problems := validateCredentials(req.Username, req.Password); problems != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Validation error", problems)
		return
	}

	_, tokens, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			WriteError(w, r, http.StatusNotFound, "user_not_found", "User not found", nil)
		case errors.Is(err, models.ErrInvalidPassword):
			WriteError(w, r, http.StatusBadRequest, "invalid_password", "Invalid password", nil)
		default:
			h.log.Error("failed to login user", slog.Any("error", err))
			writeInternalError(w, r)
		}
		return
	}

	WriteJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken, ok := bearerToken(r)
	if !ok {
		WriteUnauthorized(w, r)
		return
	}

	accessToken, err := h.auth.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			WriteUnauthorized(w, r)
			return
		}
		h.log.Error("failed to refresh token", slog.Any("error", err))
		writeInternalError(w, r)
		return
	}

	WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", false
	}

	return token, true
}
