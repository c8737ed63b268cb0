package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sporture-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventSelect = `
	SELECT e.id, e.title, e.sport, e.date, e.location, e.max_players, e.reminder_sent_at,
		e.created_at, e.updated_at, h.id, h.name, h.email
	FROM events e
	JOIN users h ON h.id = e.created_by
`

// EventRepository handles database operations for events and their players
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event, seats the host as its first player and bumps the
// host's eventsHosted and gamesPlayed counters in one transaction.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (id, title, sport, date, location, max_players, player_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9)
	`, event.ID, event.Title, event.Sport, event.Date, event.Location, event.MaxPlayers,
		event.CreatedBy.ID, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO event_players (event_id, user_id, position, joined_at)
		VALUES ($1, $2, 0, $3)
	`, event.ID, event.CreatedBy.ID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to seat host: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE users SET events_hosted = events_hosted + 1, games_played = games_played + 1, updated_at = now()
		WHERE id = $1
	`, event.CreatedBy.ID)
	if err != nil {
		return fmt.Errorf("failed to update host counters: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves an event with host and players resolved
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if err := r.populatePlayers(ctx, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

// List returns all events ordered by date. A non-empty sport filters by
// case-insensitive equality.
func (r *EventRepository) List(ctx context.Context, sport string) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE $1 = '' OR lower(e.sport) = lower($1)
		ORDER BY e.date ASC
	`
	return r.query(ctx, query, sport)
}

// ListByUser returns events the user hosts or plays in, ordered by date
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE e.created_by = $1
			OR EXISTS (SELECT 1 FROM event_players ep WHERE ep.event_id = e.id AND ep.user_id = $1)
		ORDER BY e.date ASC
	`
	return r.query(ctx, query, userID)
}

// ListDueForReminder returns unreminded events starting in (from, to]
func (r *EventRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE e.reminder_sent_at IS NULL AND e.date > $1 AND e.date <= $2
		ORDER BY e.date ASC
	`
	return r.query(ctx, query, from, to)
}

// MarkReminded claims the event for reminding. It returns false when another
// worker already claimed it.
func (r *EventRepository) MarkReminded(ctx context.Context, eventID string, at time.Time) (bool, error) {
	query := `UPDATE events SET reminder_sent_at = $2 WHERE id = $1 AND reminder_sent_at IS NULL`
	result, err := r.db.Exec(ctx, query, eventID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark event reminded: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Join appends userID to the event's players. The event row is locked first
// so concurrent joins on one event run one at a time; duplicates are checked
// before capacity, and the player insert and gamesPlayed increment commit
// together with the player_count update.
func (r *EventRepository) Join(ctx context.Context, eventID, userID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock event: %w", err)
	}

	var joined bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM event_players WHERE event_id = $1 AND user_id = $2)
	`, eventID, userID).Scan(&joined)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return ErrAlreadyJoined
	}

	var count int
	err = tx.QueryRow(ctx, `
		UPDATE events
		SET player_count = player_count + 1, updated_at = now()
		WHERE id = $1 AND player_count < max_players
		RETURNING player_count
	`, eventID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEventFull
		}
		return fmt.Errorf("failed to update event capacity: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO event_players (event_id, user_id, position, joined_at)
		VALUES ($1, $2, $3, now())
	`, eventID, userID, count-1)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return ErrAlreadyJoined
		case pgForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("failed to add player: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE users SET games_played = games_played + 1, updated_at = now() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update games played: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func (r *EventRepository) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	if err := r.populatePlayers(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// populatePlayers resolves the ordered player list of every event in one query
func (r *EventRepository) populatePlayers(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	byID := make(map[string]*models.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		e.CurrentPlayers = []models.PlayerRef{}
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT ep.event_id, u.id, u.name, u.email
		FROM event_players ep
		JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id = ANY($1)
		ORDER BY ep.event_id, ep.position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to get event players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID string
		var p models.PlayerRef
		if err := rows.Scan(&eventID, &p.ID, &p.Name, &p.Email); err != nil {
			return fmt.Errorf("failed to scan event player: %w", err)
		}
		if e, ok := byID[eventID]; ok {
			e.CurrentPlayers = append(e.CurrentPlayers, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event players: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID, &event.Title, &event.Sport, &event.Date, &event.Location, &event.MaxPlayers,
		&event.ReminderSentAt, &event.CreatedAt, &event.UpdatedAt,
		&event.CreatedBy.ID, &event.CreatedBy.Name, &event.CreatedBy.Email,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
