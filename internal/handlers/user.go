package handlers

import (
	"net/http"

	"sporture-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxPhotoSize = 5 << 20

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req services.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to update user")
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")

	respondJSON(w, http.StatusOK, user)
}

// UploadPhoto handles POST /api/users/{id}/upload-photo
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		respondError(w, "Photo is missing or too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	user, err := h.userService.UploadPhoto(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to upload photo")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("photo_url", user.PhotoURL).
		Msg("Profile photo updated")

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Profile photo updated!",
		"user":    user,
	})
}
