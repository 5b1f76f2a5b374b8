package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// expiryGrace keeps an expired blob readable long enough for a lazy
	// reader to observe the expiry and clear it explicitly.
	expiryGrace = time.Minute
	minTTL      = time.Second
)

// Redis is a [Store] that persists the session blob in Redis under a fixed
// storage key. Unlike [Memory] it is shared by every client context that
// uses the same key; concurrent writers race under last-write-wins, which
// matches the single-effective-writer model of the callers.
type Redis struct {
	client    redis.UniversalClient
	key       string
	retention time.Duration
}

// NewRedis creates a Redis-backed store. storageKey selects the blob key
// (empty selects [DefaultStorageKey]); retention is the TTL applied to
// records that carry no expiry of their own.
func NewRedis(client redis.UniversalClient, storageKey string, retention time.Duration) *Redis {
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}
	if retention <= 0 {
		retention = defaultRetention
	}

	return &Redis{
		client:    client,
		key:       storageKey,
		retention: retention,
	}
}

// Read implements [Store]. A corrupt blob is deleted best-effort and
// reported as absent.
func (s *Redis) Read(ctx context.Context) (*Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec, ok := Decode(data)
	if !ok {
		_ = s.client.Del(ctx, s.key).Err()
		return nil, nil
	}

	return rec, nil
}

// Write implements [Store]. The stored TTL tracks the merged record's
// expiry plus a grace window.
func (s *Redis) Write(ctx context.Context, patch Patch) error {
	base, err := s.Read(ctx)
	if err != nil {
		return err
	}

	merged := Merge(base, patch)
	data, err := Encode(&merged)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, s.ttlFor(&merged, time.Now())).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Clear implements [Store].
func (s *Redis) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Redis) ttlFor(rec *Record, now time.Time) time.Duration {
	if rec == nil || rec.ExpiresAt == 0 {
		return s.retention
	}

	ttl := time.Unix(rec.ExpiresAt, 0).Sub(now) + expiryGrace
	if ttl < minTTL {
		ttl = minTTL
	}
	return ttl
}
