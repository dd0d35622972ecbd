package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL DEFAULT '',
		campaign_id TEXT NOT NULL,
		email       TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		company     TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT '',
		source      TEXT NOT NULL DEFAULT '',
		confidence  INTEGER NOT NULL DEFAULT 0,
		industry    TEXT NOT NULL DEFAULT '',
		metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (campaign_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS search_jobs (
		id         TEXT PRIMARY KEY,
		status     TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS discovery_events (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL DEFAULT '',
		event_type  TEXT NOT NULL,
		message     TEXT,
		details     JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS discovery_events_campaign_idx ON discovery_events (campaign_id, created_at)`,
}

// EnsureSchema creates the service tables when they are missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
