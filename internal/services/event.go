package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sporture-backend/internal/models"
	"sporture-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	eventListCachePrefix = "events:list:"
	// eventListGenerationKey versions listing keys; it must not match eventListCachePrefix+"*"
	eventListGenerationKey = "events:listgen"
)

// EventRepository is the event persistence used by the services
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, sport string) ([]*models.Event, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Event, error)
	Join(ctx context.Context, eventID, userID string) error
}

// EventCache caches event listings
type EventCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// EventBroadcaster pushes event changes to live clients
type EventBroadcaster interface {
	BroadcastEvent(msgType string, event *models.Event)
}

// EventService handles event creation, discovery and joining
type EventService struct {
	eventRepo   EventRepository
	cache       EventCache
	cacheTTL    time.Duration
	broadcaster EventBroadcaster
	now         func() time.Time
}

// NewEventService creates a new event service. cache and broadcaster may be nil.
func NewEventService(eventRepo EventRepository, cache EventCache, cacheTTL time.Duration, broadcaster EventBroadcaster) *EventService {
	return &EventService{
		eventRepo:   eventRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// CreateEventInput represents a request to create an event
type CreateEventInput struct {
	Title      string
	Sport      string
	Date       string
	Location   string
	MaxPlayers int
}

// JoinResult is the outcome of a successful join
type JoinResult struct {
	Message string
	Event   *models.Event
}

// dateLayouts are tried in order; the last three are what HTML date inputs send
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Create creates an event hosted by hostID. The host is seated as the first
// player and credited with one hosted and one played game.
func (s *EventService) Create(ctx context.Context, hostID string, in CreateEventInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	sport := strings.TrimSpace(in.Sport)
	location := strings.TrimSpace(in.Location)
	rawDate := strings.TrimSpace(in.Date)
	if title == "" || sport == "" || rawDate == "" || location == "" || in.MaxPlayers == 0 {
		return nil, ErrMissingFields
	}
	if in.MaxPlayers < 0 {
		return nil, ErrInvalidMaxPlayers
	}
	date, ok := parseEventDate(rawDate)
	if !ok {
		return nil, ErrInvalidDate
	}

	now := s.now()
	event := &models.Event{
		ID:         uuid.New().String(),
		Title:      title,
		Sport:      sport,
		Date:       date,
		Location:   location,
		MaxPlayers: in.MaxPlayers,
		CreatedBy:  models.PlayerRef{ID: hostID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	created, err := s.eventRepo.GetByID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created event: %w", err)
	}

	s.invalidateListings(ctx)
	s.broadcast("event_created", created)

	return created, nil
}

// List returns all events ordered by date, optionally filtered by sport
// (case-insensitive exact match)
func (s *EventService) List(ctx context.Context, sport string) ([]*models.Event, error) {
	sport = strings.TrimSpace(sport)

	// The generation is read before the query, so a listing that races a
	// create or join is stored under a key no later read uses.
	key, cacheable := s.listCacheKey(ctx, sport)

	if cacheable {
		var cached []*models.Event
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Event list cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	events, err := s.eventRepo.List(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, events, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Event list cache write failed")
		}
	}

	return events, nil
}

// Get returns a single event
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	id, ok := models.NormalizeID(id)
	if !ok {
		return nil, ErrInvalidIdentifier
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Joined returns the events userID hosts or plays in
func (s *EventService) Joined(ctx context.Context, userID string) ([]*models.Event, error) {
	events, err := s.eventRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined events: %w", err)
	}
	return events, nil
}

// Join adds userID to the event's players. Preconditions are checked in
// order and the first failure wins: identifier format, existence, host,
// duplicate, capacity. The repository re-checks capacity and duplicates
// atomically, so concurrent joins cannot overfill the event.
func (s *EventService) Join(ctx context.Context, eventID, userID string) (*JoinResult, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if id, ok := models.NormalizeID(userID); ok {
		userID = id
	}

	if event.IsHost(userID) {
		return nil, ErrHostCannotJoin
	}
	if event.HasPlayer(userID) {
		return nil, ErrAlreadyJoined
	}
	if event.IsFull() {
		return nil, ErrEventFull
	}

	if err := s.eventRepo.Join(ctx, event.ID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventFull):
			return nil, ErrEventFull
		case errors.Is(err, repository.ErrAlreadyJoined):
			return nil, ErrAlreadyJoined
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to join event: %w", err)
	}

	updated, err := s.eventRepo.GetByID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load joined event: %w", err)
	}

	s.invalidateListings(ctx)
	s.broadcast("event_joined", updated)

	return &JoinResult{
		Message: fmt.Sprintf("You have successfully joined \"%s\"!", updated.Title),
		Event:   updated,
	}, nil
}

func (s *EventService) listCacheKey(ctx context.Context, sport string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	var gen int64
	if _, err := s.cache.GetJSON(ctx, eventListGenerationKey, &gen); err != nil {
		log.Warn().Err(err).Msg("Event list generation read failed")
		return "", false
	}
	return fmt.Sprintf("%s%d:%s", eventListCachePrefix, gen, strings.ToLower(sport)), true
}

func (s *EventService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, eventListGenerationKey); err != nil {
		log.Warn().Err(err).Msg("Failed to bump event list generation")
	}
	if err := s.cache.DeleteByPattern(ctx, eventListCachePrefix+"*"); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate event list cache")
	}
}

func (s *EventService) broadcast(msgType string, event *models.Event) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastEvent(msgType, event)
}

func parseEventDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
