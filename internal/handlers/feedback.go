package handlers

import (
	"net/http"

	"sporture-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedbackHandler handles feedback HTTP requests
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

// ListFeedback handles GET /api/feedback
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackService.List(r.Context())
	if err != nil {
		respondServiceError(w, err, log.Error(), "Failed to list feedback")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// CreateFeedback handles POST /api/feedback
func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req services.FeedbackInput
	if !decodeJSON(w, r, &req) {
		return
	}

	fb, err := h.feedbackService.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, log.Error(), "Failed to create feedback")
		return
	}

	log.Info().Str("feedback_id", fb.ID).Int("rating", fb.Rating).Msg("Feedback received")

	respondJSON(w, http.StatusCreated, fb)
}

// DeleteFeedback handles DELETE /api/feedback/{id}
func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.feedbackService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, log.Error().Str("feedback_id", id), "Failed to delete feedback")
		return
	}

	respondJSON(w, http.StatusOK, ErrorResponse{Message: "Feedback deleted successfully"})
}
