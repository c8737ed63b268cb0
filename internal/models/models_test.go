package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocation_Normalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `"Central Park"`, "Central Park"},
		{"plain trimmed", `"  Court 3 "`, "Court 3"},
		{"object with address", `{"address":"12 Main St","lat":1.5,"lng":2}`, "12 Main St"},
		{"object without address", `{"lat":1.5,"lng":2}`, `{"lat":1.5,"lng":2}`},
		{"empty object", `{}`, ""},
		{"null", `null`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l Location
			if err := json.Unmarshal([]byte(tc.in), &l); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := l.Normalize(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestLocation_RejectsNumbers(t *testing.T) {
	var l Location
	if err := json.Unmarshal([]byte(`42`), &l); err == nil {
		t.Fatalf("expected error for numeric location")
	}
}

func TestSameID(t *testing.T) {
	id := uuid.New()
	if !SameID(id.String(), " "+id.String()+" ") {
		t.Fatalf("expected trimmed ids to match")
	}
	if !SameID(id.String(), "urn:uuid:"+id.String()) {
		t.Fatalf("expected urn form to match")
	}
	if SameID(id.String(), uuid.NewString()) {
		t.Fatalf("expected different ids not to match")
	}
	if SameID("", "") {
		t.Fatalf("expected empty ids not to match")
	}
}

func TestNormalizeID(t *testing.T) {
	id := uuid.New().String()
	for _, in := range []string{id, strings.ToUpper(id), "  " + id + "\t"} {
		got, ok := NormalizeID(in)
		if !ok || got != id {
			t.Fatalf("NormalizeID(%q) = %q, %v; want %q", in, got, ok, id)
		}
	}
	if _, ok := NormalizeID("not-an-id"); ok {
		t.Fatalf("expected malformed id to be rejected")
	}
}

func TestEvent_Membership(t *testing.T) {
	host := PlayerRef{ID: uuid.NewString(), Name: "A"}
	other := uuid.NewString()
	e := Event{MaxPlayers: 2, CreatedBy: host, CurrentPlayers: []PlayerRef{host}}

	if !e.IsHost(host.ID) || e.IsHost(other) {
		t.Fatalf("unexpected host check")
	}
	if !e.HasPlayer(host.ID) || e.HasPlayer(other) {
		t.Fatalf("unexpected player check")
	}
	if e.IsFull() {
		t.Fatalf("expected free slot")
	}
	e.CurrentPlayers = append(e.CurrentPlayers, PlayerRef{ID: other})
	if !e.IsFull() {
		t.Fatalf("expected full event")
	}
}

func TestParseSkillLevel(t *testing.T) {
	if l, ok := ParseSkillLevel(""); !ok || l != SkillBeginner {
		t.Fatalf("expected default Beginner, got %q %v", l, ok)
	}
	if l, ok := ParseSkillLevel("advanced"); !ok || l != SkillAdvanced {
		t.Fatalf("expected Advanced, got %q %v", l, ok)
	}
	if _, ok := ParseSkillLevel("Legend"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestUser_JSONHidesSecrets(t *testing.T) {
	tok := "device"
	u := User{ID: "1", Name: "A", PasswordHash: "hash", PushToken: &tok}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["PasswordHash"]; ok {
		t.Fatalf("password hash leaked")
	}
	if _, ok := m["PushToken"]; ok {
		t.Fatalf("push token leaked")
	}
}
