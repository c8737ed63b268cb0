package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SkillLevel is a player's self-declared level
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillProfessional SkillLevel = "Professional"
)

// ParseSkillLevel matches s against the known levels, case-insensitively.
// An empty string yields SkillBeginner.
func ParseSkillLevel(s string) (SkillLevel, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SkillBeginner, true
	}
	for _, l := range []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillProfessional} {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

// User represents a registered player
type User struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FavSports    []string   `json:"favSports"`
	SkillLevel   SkillLevel `json:"skillLevel"`
	Rating       float64    `json:"rating"`
	GamesPlayed  int        `json:"gamesPlayed"`
	EventsHosted int        `json:"eventsHosted"`
	PhotoURL     string     `json:"photoURL"`
	MemberSince  string     `json:"memberSince"`
	City         string     `json:"city"`
	Bio          string     `json:"bio"`
	PushToken    *string    `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Ref returns the display sub-record for u
func (u *User) Ref() PlayerRef {
	return PlayerRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PlayerRef is a user reference resolved to display fields
type PlayerRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Event represents a sports event. CurrentPlayers is ordered by join time and
// starts with the host.
type Event struct {
	ID             string      `json:"_id"`
	Title          string      `json:"title"`
	Sport          string      `json:"sport"`
	Date           time.Time   `json:"date"`
	Location       string      `json:"location"`
	MaxPlayers     int         `json:"maxPlayers"`
	CurrentPlayers []PlayerRef `json:"currentPlayers"`
	CreatedBy      PlayerRef   `json:"createdBy"`
	ReminderSentAt *time.Time  `json:"-"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// IsHost reports whether userID created the event
func (e *Event) IsHost(userID string) bool {
	return SameID(e.CreatedBy.ID, userID)
}

// HasPlayer reports whether userID is in the participant list
func (e *Event) HasPlayer(userID string) bool {
	for _, p := range e.CurrentPlayers {
		if SameID(p.ID, userID) {
			return true
		}
	}
	return false
}

// IsFull reports whether the participant list has reached capacity
func (e *Event) IsFull() bool {
	return len(e.CurrentPlayers) >= e.MaxPlayers
}

// PlayerIDs returns the ids of all participants in order
func (e *Event) PlayerIDs() []string {
	ids := make([]string, 0, len(e.CurrentPlayers))
	for _, p := range e.CurrentPlayers {
		ids = append(ids, p.ID)
	}
	return ids
}

// Feedback is a free-standing rating left by a visitor
type Feedback struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// SameID compares two identifiers after normalization. UUIDs compare by value,
// anything else by trimmed, case-insensitive text.
func SameID(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return strings.EqualFold(a, b)
}

// NormalizeID returns the canonical lowercase form of id, or false when id
// is not a well-formed identifier
func NormalizeID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// ProfileUpdate carries the client-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name       *string
	FavSports  *[]string
	SkillLevel *SkillLevel
	City       *string
	Bio        *string
	PhotoURL   *string
}
