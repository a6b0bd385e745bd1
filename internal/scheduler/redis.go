package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker with SET NX EX, so a crashed process can
// never hold a cycle lock past its TTL.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker returns a Locker backed by rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// Acquire takes the lock, returning false when another holder has it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops the lock.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}

// RedisEvents publishes pipeline events for the gateway's live feed.
// Publishing is best-effort; a failure is logged and ignored.
type RedisEvents struct {
	rdb *redis.Client
}

// NewRedisEvents returns an Events sink backed by rdb.
func NewRedisEvents(rdb *redis.Client) *RedisEvents {
	return &RedisEvents{rdb: rdb}
}

// DigestSent publishes EVENT_DIGEST_SENT (non-fatal).
func (e *RedisEvents) DigestSent(ctx context.Context, alertID, userID string, jobCount int) {
	payload, _ := json.Marshal(map[string]any{
		"type":     "EVENT_DIGEST_SENT",
		"alertId":  alertID,
		"userId":   userID,
		"jobCount": jobCount,
	})
	if err := e.rdb.Publish(ctx, "EVENT_DIGEST_SENT", payload).Err(); err != nil {
		slog.Warn("publish EVENT_DIGEST_SENT failed", "alertId", alertID, "err", err)
	}
}
