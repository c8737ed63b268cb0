// Package memstore is an in-memory implementation of the repositories. It
// backs the "memory" database driver and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sporture-backend/internal/models"
	"sporture-backend/internal/repository"
)

// Store holds all collections behind one lock
type Store struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	events    map[string]*eventRecord
	feedbacks map[string]*models.Feedback

	Users    *UserRepository
	Events   *EventRepository
	Feedback *FeedbackRepository
}

type eventRecord struct {
	event   models.Event
	hostID  string
	players []string
}

// New creates an empty store
func New() *Store {
	s := &Store{
		users:     make(map[string]*models.User),
		events:    make(map[string]*eventRecord),
		feedbacks: make(map[string]*models.Feedback),
	}
	s.Users = &UserRepository{s: s}
	s.Events = &EventRepository{s: s}
	s.Feedback = &FeedbackRepository{s: s}
	return s
}

// UserRepository is the in-memory user collection
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.FavSports != nil {
		u.FavSports = append([]string{}, (*upd.FavSports)...)
	}
	if upd.SkillLevel != nil {
		u.SkillLevel = *upd.SkillLevel
	}
	if upd.City != nil {
		u.City = *upd.City
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = *upd.PhotoURL
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if pushToken == nil {
		u.PushToken = nil
	} else {
		tok := *pushToken
		u.PushToken = &tok
	}
	return nil
}

func (r *UserRepository) GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tokens := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if u, ok := r.s.users[id]; ok && u.PushToken != nil && *u.PushToken != "" {
			tokens[id] = *u.PushToken
		}
	}
	return tokens, nil
}

// EventRepository is the in-memory event collection
type EventRepository struct {
	s *Store
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	host, ok := r.s.users[event.CreatedBy.ID]
	if !ok {
		return repository.ErrNotFound
	}

	rec := &eventRecord{
		event:   *event,
		hostID:  host.ID,
		players: []string{host.ID},
	}
	rec.event.CurrentPlayers = nil
	r.s.events[event.ID] = rec

	host.EventsHosted++
	host.GamesPlayed++
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.populate(rec), nil
}

func (r *EventRepository) List(ctx context.Context, sport string) ([]*models.Event, error) {
	return r.filter(func(rec *eventRecord) bool {
		return sport == "" || strings.EqualFold(rec.event.Sport, sport)
	}), nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	return r.filter(func(rec *eventRecord) bool {
		if rec.hostID == userID {
			return true
		}
		for _, p := range rec.players {
			if p == userID {
				return true
			}
		}
		return false
	}), nil
}

func (r *EventRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	return r.filter(func(rec *eventRecord) bool {
		return rec.event.ReminderSentAt == nil && rec.event.Date.After(from) && !rec.event.Date.After(to)
	}), nil
}

func (r *EventRepository) MarkReminded(ctx context.Context, eventID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.events[eventID]
	if !ok || rec.event.ReminderSentAt != nil {
		return false, nil
	}
	rec.event.ReminderSentAt = &at
	return true, nil
}

// Join applies the same conditional append as the Postgres repository, under the store lock
func (r *EventRepository) Join(ctx context.Context, eventID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, p := range rec.players {
		if p == userID {
			return repository.ErrAlreadyJoined
		}
	}
	if len(rec.players) >= rec.event.MaxPlayers {
		return repository.ErrEventFull
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}

	rec.players = append(rec.players, userID)
	rec.event.UpdatedAt = time.Now()
	u.GamesPlayed++
	return nil
}

func (r *EventRepository) filter(keep func(*eventRecord) bool) []*models.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := []*models.Event{}
	for _, rec := range r.s.events {
		if keep(rec) {
			events = append(events, r.s.populate(rec))
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// FeedbackRepository is the in-memory feedback collection
type FeedbackRepository struct {
	s *Store
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *fb
	r.s.feedbacks[fb.ID] = &cp
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context) ([]*models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]*models.Feedback, 0, len(r.s.feedbacks))
	for _, fb := range r.s.feedbacks {
		cp := *fb
		items = append(items, &cp)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.feedbacks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.feedbacks, id)
	return nil
}

// populate must be called with s.mu held
func (s *Store) populate(rec *eventRecord) *models.Event {
	e := rec.event
	if host, ok := s.users[rec.hostID]; ok {
		e.CreatedBy = host.Ref()
	}
	e.CurrentPlayers = make([]models.PlayerRef, 0, len(rec.players))
	for _, id := range rec.players {
		if u, ok := s.users[id]; ok {
			e.CurrentPlayers = append(e.CurrentPlayers, u.Ref())
		} else {
			e.CurrentPlayers = append(e.CurrentPlayers, models.PlayerRef{ID: id})
		}
	}
	return &e
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.FavSports = append([]string{}, u.FavSports...)
	if u.PushToken != nil {
		tok := *u.PushToken
		cp.PushToken = &tok
	}
	return &cp
}
