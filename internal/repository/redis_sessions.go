package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillswap-backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "skillswap:session:"

// RedisSessionStore keeps sessions in Redis with a TTL equal to the
// remaining lifetime, so expired sessions disappear on their own.
type RedisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, now: time.Now}
}

func (s *RedisSessionStore) key(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

func (s *RedisSessionStore) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		// Redis rejects non-positive expirations; let the key lapse at once.
		ttl = time.Millisecond
	}
	return ttl
}

func (s *RedisSessionStore) CreateSession(ctx context.Context, sess *models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key(sess.ID), payload, s.ttl(sess.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	sess := &models.Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) TouchSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// XX: never recreate a session deleted by a concurrent logout.
	ok, err := s.rdb.SetXX(ctx, s.key(id), payload, s.ttl(expiresAt)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op; keys expire through their TTL.
func (s *RedisSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Ping checks the Redis connection.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// WithSessionStore returns a Store that delegates session operations to
// sessions and everything else to base.
func WithSessionStore(base Store, sessions *RedisSessionStore) Store {
	return &splitStore{Store: base, sessions: sessions}
}

type splitStore struct {
	Store
	sessions *RedisSessionStore
}

func (s *splitStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.sessions.CreateSession(ctx, sess)
}

func (s *splitStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.sessions.GetSession(ctx, id)
}

func (s *splitStore) TouchSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return s.sessions.TouchSession(ctx, id, expiresAt)
}

func (s *splitStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.sessions.DeleteSession(ctx, id)
}

func (s *splitStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, now)
}

func (s *splitStore) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return err
	}
	return s.sessions.Ping(ctx)
}

func (s *splitStore) Close() error {
	err := s.Store.Close()
	if cerr := s.sessions.rdb.Close(); err == nil {
		err = cerr
	}
	return err
}
