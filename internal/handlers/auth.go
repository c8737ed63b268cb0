package handlers

import (
	"net/http"

	"sporture-backend/internal/middleware"
	"sporture-backend/internal/models"
	"sporture-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and the current session
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

type userResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("email", req.Email), "Failed to register user")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")

	respondJSON(w, http.StatusCreated, userResponse{Success: true, User: user})
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err, log.Error(), "Failed to log in")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")

	respondJSON(w, http.StatusOK, userResponse{Success: true, Token: token, User: user})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	respondJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	Token string `json:"token"`
}

// SetPushToken handles PUT /api/auth/push-token
func (h *AuthHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.SetPushToken(ctx, userID, req.Token); err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to update push token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Push token updated",
	})
}
