package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartbus/internal/clock"
	"smartbus/internal/domain"
)

const (
	sessionKeyPrefix = "admin_session:"
	emailKeyPrefix   = "admin_session_email:"
)

// RedisStore keeps sessions as JSON values with a TTL and publishes every
// change on ChangedChannel so other instances can follow along.
type RedisStore struct {
	rdb *redis.Client
	clk clock.Clock
	ttl time.Duration

	newID func() string
	subs  subscribers
}

func NewRedisStore(rdb *redis.Client, clk clock.Clock, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, clk: clk, ttl: ttl, newID: uuid.NewString}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func emailKey(email string) string { return emailKeyPrefix + email }

func (r *RedisStore) Open(ctx context.Context, s Session) (Session, error) {
	s.Email = normalizeEmail(s.Email)
	if err := r.CloseByEmail(ctx, s.Email); err != nil {
		return Session{}, err
	}

	now := r.clk.Now()
	s.ID = r.newID()
	s.OpenedAt = now
	s.ExpiresAt = now.Add(r.ttl)

	data, err := json.Marshal(s)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), string(data), r.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	if err := r.rdb.Set(ctx, emailKey(s.Email), s.ID, r.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("index session: %w", err)
	}

	r.changed(ctx, Change{Kind: Opened, Session: s})
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, domain.NotFoundError{Resource: "admin session", Err: err}
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Close(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := r.rdb.Del(ctx, sessionKey(id), emailKey(s.Email)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	r.changed(ctx, Change{Kind: Closed, Session: s})
	return nil
}

func (r *RedisStore) CloseByEmail(ctx context.Context, email string) error {
	id, err := r.rdb.Get(ctx, emailKey(normalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return r.Close(ctx, id)
}

func (r *RedisStore) Subscribe(fn func(Change)) func() {
	return r.subs.add(fn)
}

func (r *RedisStore) changed(ctx context.Context, c Change) {
	r.subs.notify(c)
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, ChangedChannel, string(data)).Err(); err != nil {
		log.Printf("[SESSION] publish %s failed: %v", c.Kind, err)
	}
}
