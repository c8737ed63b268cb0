package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sporture-backend/internal/models"
	"sporture-backend/internal/repository/memstore"

	"github.com/google/uuid"
)

type sentPush struct {
	token string
	n     Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentPush
	fail bool
}

func (f *fakeNotifier) Notify(ctx context.Context, deviceToken string, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("apns unavailable")
	}
	f.sent = append(f.sent, sentPush{token: deviceToken, n: n})
	return nil
}

type fakeLive struct {
	users []string
}

func (f *fakeLive) NotifyReminder(userID string, event *models.Event, startsIn string) error {
	f.users = append(f.users, userID)
	return nil
}

type reminderFixture struct {
	store    *memstore.Store
	svc      *ReminderService
	notifier *fakeNotifier
	live     *fakeLive
	now      time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	store := memstore.New()
	n := &fakeNotifier{}
	live := &fakeLive{}
	now := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := NewReminderService(store.Events, store.Users, n, live, 2*time.Hour)
	svc.now = func() time.Time { return now }
	return &reminderFixture{store: store, svc: svc, notifier: n, live: live, now: now}
}

func (f *reminderFixture) user(t *testing.T, name string, pushToken string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New().String(), Name: name, Email: name + "@example.com"}
	if pushToken != "" {
		u.PushToken = &pushToken
	}
	if err := f.store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *reminderFixture) event(t *testing.T, host *models.User, title string, startsIn time.Duration) *models.Event {
	t.Helper()
	e := &models.Event{
		ID:         uuid.New().String(),
		Title:      title,
		Sport:      "Football",
		Date:       f.now.Add(startsIn),
		Location:   "Park",
		MaxPlayers: 10,
		CreatedBy:  models.PlayerRef{ID: host.ID},
	}
	if err := f.store.Events.Create(context.Background(), e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func TestStartsIn(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "starting now"},
		{59 * time.Second, "starting now"},
		{time.Minute, "in 1 minute"},
		{45 * time.Minute, "in 45 minutes"},
		{time.Hour, "in 1 hour"},
		{5*time.Hour + 59*time.Minute, "in 5 hours"},
		{24 * time.Hour, "in 1 day"},
		{72*time.Hour + time.Hour, "in 3 days"},
	}
	for _, tt := range tests {
		if got := StartsIn(tt.d); got != tt.want {
			t.Errorf("StartsIn(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestUpcoming(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "")
	bob := f.user(t, "bob", "")

	f.event(t, alice, "yesterday", -24*time.Hour)
	later := f.event(t, alice, "later", 3*24*time.Hour)
	soon := f.event(t, bob, "soon", 30*time.Minute)
	f.event(t, bob, "not mine", time.Hour)
	if err := f.store.Events.Join(ctx, soon.ID, alice.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	reminders, err := f.svc.Upcoming(ctx, alice.ID)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(reminders) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(reminders))
	}
	if reminders[0].Event.ID != soon.ID || reminders[0].StartsIn != "in 30 minutes" {
		t.Fatalf("unexpected first reminder %+v", reminders[0])
	}
	if reminders[1].Event.ID != later.ID || reminders[1].StartsIn != "in 3 days" {
		t.Fatalf("unexpected second reminder %+v", reminders[1])
	}
}

func TestSendDueRemindsOnce(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	host := f.user(t, "host", "host-device")
	player := f.user(t, "player", "player-device")
	silent := f.user(t, "silent", "")

	due := f.event(t, host, "Kickoff", 90*time.Minute)
	f.event(t, host, "Next week", 7*24*time.Hour)
	for _, u := range []*models.User{player, silent} {
		if err := f.store.Events.Join(ctx, due.ID, u.ID); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	claimed, err := f.svc.SendDue(ctx)
	if err != nil {
		t.Fatalf("send due: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected 1 claimed event, got %d", claimed)
	}
	if len(f.notifier.sent) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(f.notifier.sent))
	}
	for _, p := range f.notifier.sent {
		if p.n.EventID != due.ID || p.n.Title != "Kickoff" {
			t.Fatalf("unexpected notification %+v", p.n)
		}
		if p.token != "host-device" && p.token != "player-device" {
			t.Fatalf("unexpected device %q", p.token)
		}
	}
	if len(f.live.users) != 3 {
		t.Fatalf("expected live reminders for all 3 players, got %v", f.live.users)
	}

	claimed, err = f.svc.SendDue(ctx)
	if err != nil {
		t.Fatalf("second send due: %v", err)
	}
	if claimed != 0 || len(f.notifier.sent) != 2 {
		t.Fatalf("expected no repeat reminders, claimed=%d sent=%d", claimed, len(f.notifier.sent))
	}
}

func TestSendDueSurvivesPushFailure(t *testing.T) {
	f := newReminderFixture(t)
	f.notifier.fail = true
	host := f.user(t, "host", "host-device")
	f.event(t, host, "Kickoff", time.Hour)

	claimed, err := f.svc.SendDue(context.Background())
	if err != nil {
		t.Fatalf("send due: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected event claimed despite push failure, got %d", claimed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newReminderFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reminder worker did not stop")
	}
}
