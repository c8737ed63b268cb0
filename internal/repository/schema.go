package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		fav_sports TEXT[] NOT NULL DEFAULT '{}',
		skill_level TEXT NOT NULL DEFAULT 'Beginner',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0,
		events_hosted INTEGER NOT NULL DEFAULT 0,
		photo_url TEXT NOT NULL DEFAULT '',
		member_since TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT 'Unknown',
		bio TEXT NOT NULL DEFAULT 'No bio yet.',
		push_token TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		sport TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		location TEXT NOT NULL,
		max_players INTEGER NOT NULL CHECK (max_players > 0),
		player_count INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL REFERENCES users(id),
		reminder_sent_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (player_count <= max_players)
	)`,
	`CREATE INDEX IF NOT EXISTS events_date_idx ON events (date)`,
	`CREATE INDEX IF NOT EXISTS events_sport_idx ON events (lower(sport))`,
	`CREATE TABLE IF NOT EXISTS event_players (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		position INTEGER NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS event_players_user_idx ON event_players (user_id)`,
	`CREATE TABLE IF NOT EXISTS feedbacks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the schema if it does not exist yet
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
