// Package session implements the redis-backed session store. A session
// carries the resolved identity, the user's catalog access token, and
// the served batch: the last candidate list returned to the client,
// which the re-ranker needs to know what was in view when a click
// happened. Everything here dies with the session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Session is one logged-in client.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	AccessToken string    `json:"accessToken"`
	ServedBatch []string  `json:"servedBatch,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists sessions in redis with TTL-based expiry.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store. ttl <= 0 defaults to 24h.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Create starts a new session for the user and returns it.
func (s *Store) Create(ctx context.Context, userID, accessToken string) (*Session, error) {
	sess := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessToken: accessToken,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session for the given ID, or nil if it does not exist
// or has expired.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// SaveServedBatch overwrites the session's served batch and refreshes
// the TTL. Called on every feed read.
func (s *Store) SaveServedBatch(ctx context.Context, sessionID string, videoIDs []string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %s expired", sessionID)
	}

	sess.ServedBatch = videoIDs
	return s.put(ctx, sess)
}

// Delete drops the session, served batch included.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
