package handlers

import (
	"net/http"

	"sporture-backend/internal/middleware"
	"sporture-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ReminderHandler serves the caller's upcoming events
type ReminderHandler struct {
	reminderService *services.ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
	}
}

// ListReminders handles GET /api/reminders
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	reminders, err := h.reminderService.Upcoming(ctx, userID)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to list reminders")
		return
	}

	respondJSON(w, http.StatusOK, reminders)
}
