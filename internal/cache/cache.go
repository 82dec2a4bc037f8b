// Package cache wires the Redis-backed change stream. Every successful
// mutation is pushed here and fanned out to all connected clients; clients
// observe outcomes through this stream, never through call return values, so
// a presentation screen and the acting player converge on the same state.
package cache

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. A nil Rdb disables the stream (tests run
// without Redis).
var Rdb *redis.Client

// InitRedis connects the shared client.
func InitRedis(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return err
	}
	Rdb = client
	return nil
}

// Close shuts down the shared client.
func Close() {
	if Rdb != nil {
		Rdb.Close()
		Rdb = nil
	}
}

// sessionChannel is the pub/sub channel for one session's change stream.
func sessionChannel(sessionID uuid.UUID) string {
	return "session:events:" + sessionID.String()
}

// actionLogKey is the Redis list mirroring a session's action log for
// audit/export consumers.
func actionLogKey(sessionID uuid.UUID) string {
	return "session:actions:" + sessionID.String()
}

// ChangeEvent is the wire form of one domain event on the change stream.
// Payloads carry full state, so delivery is safe to apply more than once;
// the stream is at-least-once and duplicates must be idempotent.
type ChangeEvent struct {
	SessionID uuid.UUID       `json:"sessionId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	// Origin identifies the publishing process so instances can skip
	// events they produced themselves when relaying to local sockets.
	Origin string `json:"origin,omitempty"`
}

// PublishEvent pushes one change event to every subscriber of the session.
func PublishEvent(ctx context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return Rdb.Publish(ctx, sessionChannel(ev.SessionID), data).Err()
}

// Subscribe opens the change stream for one session. The caller owns the
// returned PubSub and must Close it.
func Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return Rdb.Subscribe(ctx, sessionChannel(sessionID))
}

// GameActionRecord is the audit form of one pick/steal action.
type GameActionRecord struct {
	SessionID       uuid.UUID `json:"sessionId"`
	ActionIndex     int       `json:"actionIndex"`
	ActorID         uuid.UUID `json:"actorId"`
	ActionType      string    `json:"actionType"`
	GiftID          uuid.UUID `json:"giftId"`
	PreviousOwnerID string    `json:"previousOwnerId,omitempty"`
	Timestamp       int64     `json:"timestamp"`
}

// PublishGameAction appends an action record to the session's audit list.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return Rdb.RPush(ctx, actionLogKey(rec.SessionID), data).Err()
}
