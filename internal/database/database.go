// Package database is the durable ledger store: sessions, players, gifts,
// and the append-only action log, backed by Postgres via pgx.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Callers must treat a nil DB as
// "persistence disabled" (tests run without a database).
var DB *pgxpool.Pool

// Typed store failures. ErrNotFound is non-retriable: the caller must
// re-join or re-create. ErrConflict means a concurrent writer won the race
// on the same record; callers map it to the precondition-violation class.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflicting concurrent write")
)

const (
	maxRetries = 2
	retryDelay = 200 * time.Millisecond
)

// Connect establishes the pool and verifies connectivity.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	DB = pool
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// mapError normalizes pgx errors into the store's typed failures.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01": // unique violation, serialization failure, deadlock
			return ErrConflict
		}
	}
	return err
}

// isTransient reports whether an error is worth retrying: connectivity
// failures, not precondition or conflict outcomes.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 connection exceptions.
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	// Network-level errors arrive untyped from the pool.
	return true
}

// withRetry runs fn, retrying transient failures a bounded number of times
// with a short fixed delay before surfacing the error.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logrus.WithField("op", op).WithField("attempt", attempt).
				WithError(err).Warn("retrying store operation")
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = mapError(fn())
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

// Migrate creates the schema. Idempotent.
func Migrate(ctx context.Context) error {
	_, err := DB.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	session_code TEXT NOT NULL UNIQUE,
	game_status TEXT NOT NULL,
	active_player_id UUID,
	first_player_id UUID,
	round_index INT NOT NULL DEFAULT 0,
	is_final_round BOOLEAN NOT NULL DEFAULT FALSE,
	max_steals_per_gift INT NOT NULL DEFAULT 2,
	randomize_order BOOLEAN NOT NULL DEFAULT FALSE,
	allow_immediate_stealback BOOLEAN NOT NULL DEFAULT FALSE,
	turn_timer_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	turn_timer_seconds INT NOT NULL DEFAULT 60,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id),
	display_name TEXT NOT NULL,
	order_index INT NOT NULL,
	current_gift_id UUID,
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	has_completed_turn BOOLEAN NOT NULL DEFAULT FALSE,
	avatar_seed TEXT NOT NULL DEFAULT '',
	joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	-- Deferred: a shuffled start rewrites every order_index in one
	-- transaction and intermediate states may collide.
	UNIQUE (session_id, order_index) DEFERRABLE INITIALLY DEFERRED
);

CREATE TABLE IF NOT EXISTS gifts (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id),
	name TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	link TEXT,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'hidden',
	steal_count INT NOT NULL DEFAULT 0,
	current_owner_id UUID,
	position INT
);

CREATE TABLE IF NOT EXISTS actions (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id),
	player_id UUID NOT NULL,
	action_type TEXT NOT NULL,
	gift_id UUID NOT NULL,
	previous_owner_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_players_session ON players(session_id);
CREATE INDEX IF NOT EXISTS idx_gifts_session ON gifts(session_id);
CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id, created_at);
`
