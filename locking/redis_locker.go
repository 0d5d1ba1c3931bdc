package locking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sgengine.dev/engineerr"
)

// RedisLocker is a secondary Locker backing, adapted from the teacher's
// RedisRepository.AcquireLock/ReleaseLock/IsLocked (db/repository/redis.go,
// since removed from the tree). Unlike RecordStoreLocker it supports real
// TTL expiry natively via Redis's own key expiry rather than a sweep.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker wraps an already-connected Redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func redisLockKey(lockID string) string {
	return "sgengine:lock:" + lockID
}

type redisLockPayload struct {
	Owner      string         `json:"owner"`
	AcquiredAt time.Time      `json:"acquired_at"`
	Meta       map[string]any `json:"data,omitempty"`
}

// Acquire sets the lock key only if absent (SETNX), with ttl as the Redis
// key's own expiry. ttl of 0 means the lock never expires on its own.
func (l *RedisLocker) Acquire(ctx context.Context, lockID, owner string, meta map[string]any, ttl int64) error {
	payload, err := json.Marshal(redisLockPayload{Owner: owner, AcquiredAt: time.Now(), Meta: meta})
	if err != nil {
		return fmt.Errorf("locking: failed to marshal lock payload: %w", err)
	}

	var expiry time.Duration
	if ttl > 0 {
		expiry = time.Duration(ttl) * time.Second
	}

	acquired, err := l.client.SetNX(ctx, redisLockKey(lockID), payload, expiry).Result()
	if err != nil {
		return fmt.Errorf("locking: redis setnx failed: %w", err)
	}
	if !acquired {
		holder := ""
		if raw, getErr := l.client.Get(ctx, redisLockKey(lockID)).Bytes(); getErr == nil {
			var existing redisLockPayload
			if json.Unmarshal(raw, &existing) == nil {
				holder = existing.Owner
			}
		}
		return &engineerr.LockContentionError{LockID: lockID, Holder: holder}
	}
	return nil
}

// Release deletes the lock key. Absence is not an error.
func (l *RedisLocker) Release(ctx context.Context, lockID string) error {
	return l.client.Del(ctx, redisLockKey(lockID)).Err()
}

// IsLocked reports whether the lock key currently exists (Redis enforces
// its own TTL expiry, so an expired lock simply won't exist anymore).
func (l *RedisLocker) IsLocked(ctx context.Context, lockID string) (bool, error) {
	exists, err := l.client.Exists(ctx, redisLockKey(lockID)).Result()
	if err != nil {
		return false, fmt.Errorf("locking: redis exists failed: %w", err)
	}
	return exists > 0, nil
}
