package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/service"
)

// CredentialsRequest is the shared request schema of register and login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token
type TokenResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// AuthHandler handles POST /api/v1/register and POST /api/v1/login
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /api/v1/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.logger.Error("registration failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, TokenResponse{
		Message:     "User registration successful",
		AccessToken: result.Token,
	})
}

// Login handles POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			writeMessage(w, http.StatusBadRequest, "User does not exist")
		case errors.Is(err, domain.ErrBadCredentials):
			writeMessage(w, http.StatusBadRequest, "Password is incorrect")
		default:
			h.logger.Error("login failed",
				slog.String("username", req.Username),
				slog.String("error", err.Error()),
			)
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Message:     "User login successful",
		AccessToken: result.Token,
	})
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode credentials", slog.String("error", err.Error()))
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "This field cannot be blank")
		return req, false
	}
	return req, true
}
