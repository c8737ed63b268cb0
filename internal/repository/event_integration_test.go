package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"sporture-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("SPORTURE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SPORTURE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func createTestUser(t *testing.T, repo *UserRepository, name string) *models.User {
	t.Helper()
	now := time.Now()
	u := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		FavSports:    []string{},
		SkillLevel:   models.SkillBeginner,
		City:         "Unknown",
		Bio:          "No bio yet.",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestEvent(t *testing.T, repo *EventRepository, host *models.User, maxPlayers int, startsIn time.Duration) *models.Event {
	t.Helper()
	now := time.Now()
	e := &models.Event{
		ID:         uuid.New().String(),
		Title:      "Integration " + host.Name,
		Sport:      "Football",
		Date:       now.Add(startsIn),
		Location:   "Park",
		MaxPlayers: maxPlayers,
		CreatedBy:  models.PlayerRef{ID: host.ID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func TestPostgresUserDuplicateEmail(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)

	u := createTestUser(t, users, "dup")
	clone := *u
	clone.ID = uuid.New().String()
	if err := users.Create(context.Background(), &clone); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgresCreateSeatsHost(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)

	host := createTestUser(t, users, "host")
	e := createTestEvent(t, events, host, 3, 24*time.Hour)

	got, err := events.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.CurrentPlayers) != 1 || got.CurrentPlayers[0].ID != host.ID || got.CreatedBy.Name != host.Name {
		t.Fatalf("unexpected event %+v", got)
	}

	reloaded, err := users.GetByID(ctx, host.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.EventsHosted != 1 || reloaded.GamesPlayed != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", reloaded.EventsHosted, reloaded.GamesPlayed)
	}

	if err := events.Create(ctx, &models.Event{
		ID: uuid.New().String(), Title: "x", Sport: "x", Date: time.Now(), Location: "x",
		MaxPlayers: 2, CreatedBy: models.PlayerRef{ID: uuid.New().String()},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown host, got %v", err)
	}
}

func TestPostgresConcurrentJoin(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)

	host := createTestUser(t, users, "host")
	e := createTestEvent(t, events, host, 5, 24*time.Hour)

	const joiners = 40
	players := make([]*models.User, joiners)
	for i := range players {
		players[i] = createTestUser(t, users, fmt.Sprintf("p%d", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var joined, full int
	for _, p := range players {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			err := events.Join(ctx, e.ID, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, ErrEventFull):
				full++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}(p.ID)
	}
	wg.Wait()

	if joined != 4 || full != joiners-4 {
		t.Fatalf("expected 4 joined and %d full, got %d and %d", joiners-4, joined, full)
	}

	got, err := events.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.CurrentPlayers) != 5 {
		t.Fatalf("expected 5 players, got %d", len(got.CurrentPlayers))
	}
	if got.CurrentPlayers[0].ID != host.ID {
		t.Fatal("expected host first")
	}
}

func TestPostgresJoinErrors(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)

	host := createTestUser(t, users, "host")
	bob := createTestUser(t, users, "bob")
	e := createTestEvent(t, events, host, 4, 24*time.Hour)

	if err := events.Join(ctx, e.ID, bob.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := events.Join(ctx, e.ID, bob.ID); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	if err := events.Join(ctx, uuid.New().String(), bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	reloaded, err := users.GetByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.GamesPlayed != 1 {
		t.Fatalf("expected gamesPlayed 1 after rejected duplicate, got %d", reloaded.GamesPlayed)
	}

	got, err := events.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.CurrentPlayers) != 2 {
		t.Fatalf("expected 2 players, got %d", len(got.CurrentPlayers))
	}
}

func TestPostgresDuplicateJoinOnFullEvent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)

	host := createTestUser(t, users, "host")
	bob := createTestUser(t, users, "bob")
	e := createTestEvent(t, events, host, 2, 24*time.Hour)

	if err := events.Join(ctx, e.ID, bob.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := events.Join(ctx, e.ID, bob.ID); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined on a full event, got %v", err)
	}
	if err := events.Join(ctx, e.ID, host.ID); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined for the seated host, got %v", err)
	}
}

func TestPostgresReminderClaim(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)

	host := createTestUser(t, users, "host")
	e := createTestEvent(t, events, host, 4, 30*time.Minute)

	due, err := events.ListDueForReminder(ctx, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	found := false
	for _, d := range due {
		if d.ID == e.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected event to be due")
	}

	ok, err := events.MarkReminded(ctx, e.ID, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected first claim to succeed, got %v %v", ok, err)
	}
	ok, err = events.MarkReminded(ctx, e.ID, time.Now())
	if err != nil || ok {
		t.Fatalf("expected second claim to fail, got %v %v", ok, err)
	}
}
