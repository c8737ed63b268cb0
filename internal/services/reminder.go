package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sporture-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ReminderRepository is the event persistence used for reminders
type ReminderRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Event, error)
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Event, error)
	MarkReminded(ctx context.Context, eventID string, at time.Time) (bool, error)
}

// PushTokenSource resolves users to their device tokens
type PushTokenSource interface {
	GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

// Notification is a push message about an event
type Notification struct {
	Title   string
	Body    string
	EventID string
}

// Notifier delivers a push notification to one device
type Notifier interface {
	Notify(ctx context.Context, deviceToken string, n Notification) error
}

// LiveNotifier reaches players that currently hold an open connection
type LiveNotifier interface {
	NotifyReminder(userID string, event *models.Event, startsIn string) error
}

// Reminder is an upcoming event with a human-readable countdown
type Reminder struct {
	Event    *models.Event `json:"event"`
	StartsIn string        `json:"startsIn"`
}

// ReminderService lists upcoming events and pushes start reminders
type ReminderService struct {
	eventRepo ReminderRepository
	tokens    PushTokenSource
	notifier  Notifier
	live      LiveNotifier
	lead      time.Duration
	now       func() time.Time
}

// NewReminderService creates a new reminder service. live may be nil.
func NewReminderService(eventRepo ReminderRepository, tokens PushTokenSource, notifier Notifier, live LiveNotifier, lead time.Duration) *ReminderService {
	return &ReminderService{
		eventRepo: eventRepo,
		tokens:    tokens,
		notifier:  notifier,
		live:      live,
		lead:      lead,
		now:       time.Now,
	}
}

// Upcoming returns the user's hosted and joined events that have not started, soonest first
func (s *ReminderService) Upcoming(ctx context.Context, userID string) ([]Reminder, error) {
	events, err := s.eventRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user events: %w", err)
	}

	now := s.now()
	reminders := []Reminder{}
	for _, e := range events {
		if e.Date.Before(now) {
			continue
		}
		reminders = append(reminders, Reminder{Event: e, StartsIn: StartsIn(e.Date.Sub(now))})
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].Event.Date.Before(reminders[j].Event.Date)
	})

	return reminders, nil
}

// StartsIn formats the time left before an event using its largest whole unit
func StartsIn(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return "starting now"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("in 1 %s", unit)
	}
	return fmt.Sprintf("in %d %ss", n, unit)
}

// SendDue reminds the players of every event starting within the lead window.
// Each event is claimed before sending so it is reminded at most once, even
// with several workers running. Returns the number of events claimed.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {
	now := s.now()
	events, err := s.eventRepo.ListDueForReminder(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, fmt.Errorf("failed to list due events: %w", err)
	}

	var claimed int
	for _, e := range events {
		ok, err := s.eventRepo.MarkReminded(ctx, e.ID, now)
		if err != nil {
			log.Error().Err(err).Str("event_id", e.ID).Msg("Failed to claim event reminder")
			continue
		}
		if !ok {
			continue
		}
		claimed++
		s.remind(ctx, e, StartsIn(e.Date.Sub(now)))
	}

	return claimed, nil
}

func (s *ReminderService) remind(ctx context.Context, e *models.Event, startsIn string) {
	playerIDs := e.PlayerIDs()

	if s.live != nil {
		for _, id := range playerIDs {
			// Offline players are expected here
			_ = s.live.NotifyReminder(id, e, startsIn)
		}
	}

	tokens, err := s.tokens.GetPushTokens(ctx, playerIDs)
	if err != nil {
		log.Error().Err(err).Str("event_id", e.ID).Msg("Failed to load push tokens")
		return
	}

	n := Notification{
		Title:   e.Title,
		Body:    fmt.Sprintf("%s at %s starts %s", e.Sport, e.Location, startsIn),
		EventID: e.ID,
	}
	for userID, deviceToken := range tokens {
		if err := s.notifier.Notify(ctx, deviceToken, n); err != nil {
			log.Warn().Err(err).Str("event_id", e.ID).Str("user_id", userID).Msg("Failed to push reminder")
		}
	}

	log.Info().Str("event_id", e.ID).Int("players", len(playerIDs)).Int("devices", len(tokens)).Msg("Event reminder sent")
}

// Run calls SendDue every interval until ctx is cancelled
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Dur("lead", s.lead).Msg("Reminder worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reminder worker stopped")
			return
		case <-ticker.C:
			if _, err := s.SendDue(ctx); err != nil {
				log.Error().Err(err).Msg("Reminder run failed")
			}
		}
	}
}
