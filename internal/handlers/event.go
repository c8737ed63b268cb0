package handlers

import (
	"net/http"

	"sporture-backend/internal/middleware"
	"sporture-backend/internal/models"
	"sporture-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// CreateEventRequest represents the request body for creating an event.
// location may be a plain address or an object with an address field.
type CreateEventRequest struct {
	Title      string          `json:"title"`
	Sport      string          `json:"sport"`
	Date       string          `json:"date"`
	Location   models.Location `json:"location"`
	MaxPlayers flexInt         `json:"maxPlayers"`
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(ctx, userID, services.CreateEventInput{
		Title:      req.Title,
		Sport:      req.Sport,
		Date:       req.Date,
		Location:   req.Location.Normalize(),
		MaxPlayers: int(req.MaxPlayers),
	})
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to create event")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("event_id", event.ID).
		Str("sport", event.Sport).
		Msg("Event created")

	respondJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/events?sport=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")

	events, err := h.eventService.List(r.Context(), sport)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("sport", sport), "Failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("event_id", eventID), "Failed to get event")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// JoinedEvents handles GET /api/events/joined
func (h *EventHandler) JoinedEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.Joined(ctx, userID)
	if err != nil {
		respondServiceError(w, err, log.Error().Str("user_id", userID), "Failed to list joined events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// JoinEventResponse represents the response for a successful join
type JoinEventResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// JoinEvent handles POST /api/events/{id}/join
func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "id")

	result, err := h.eventService.Join(ctx, eventID, userID)
	if err != nil {
		respondServiceError(w, err,
			log.Error().Str("user_id", userID).Str("event_id", eventID),
			"Failed to join event")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("event_id", eventID).
		Int("players", len(result.Event.CurrentPlayers)).
		Msg("Event joined")

	respondJSON(w, http.StatusOK, JoinEventResponse{
		Success: true,
		Message: result.Message,
		Event:   result.Event,
	})
}
