package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "interview:"

// RedisLedger is the optional shared backend for deployments where more
// than one process serves interviews. History is a Redis list (RPUSH
// order is the append order), the snapshot a JSON string; both carry the
// same TTL so abandoned sessions expire together.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger connects to Redis using a redis:// URL and verifies the
// connection. A non-positive ttl keeps sessions forever.
func NewRedisLedger(ctx context.Context, url string, ttl time.Duration) (*RedisLedger, error) {
	if url == "" {
		return nil, fmt.Errorf("session: redis url is required")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: connect to redis: %w", err)
	}

	return &RedisLedger{client: client, ttl: ttl}, nil
}

// Close closes the underlying Redis client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func historyKey(sessionID string) string  { return redisKeyPrefix + sessionID + ":history" }
func snapshotKey(sessionID string) string { return redisKeyPrefix + sessionID + ":snapshot" }

// Append implements Ledger.
func (l *RedisLedger) Append(ctx context.Context, sessionID string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("session: marshal entry: %w", err)
	}

	key := historyKey(sessionID)
	if err := l.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("session: append: %w", err)
	}
	l.refreshTTL(ctx, key)
	return nil
}

// ReadAll implements Ledger.
func (l *RedisLedger) ReadAll(ctx context.Context, sessionID string) ([]Entry, error) {
	items, err := l.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("session: read history: %w", err)
	}

	var out []Entry
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("session: corrupt entry for %q: %w", sessionID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear implements Ledger.
func (l *RedisLedger) Clear(ctx context.Context, sessionID string) error {
	if err := l.client.Del(ctx, historyKey(sessionID), snapshotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// SnapshotUpsert implements Ledger.
func (l *RedisLedger) SnapshotUpsert(ctx context.Context, sessionID string, snap Snapshot) error {
	snap.SessionID = sessionID
	snap.UpdatedAt = now()

	prev, err := l.SnapshotRead(ctx, sessionID)
	if err == nil && prev != nil {
		snap.CreatedAt = prev.CreatedAt
	}
	if snap.CreatedAt == "" {
		snap.CreatedAt = snap.UpdatedAt
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("session: marshal snapshot: %w", err)
	}

	if err := l.client.Set(ctx, snapshotKey(sessionID), data, l.expiry()).Err(); err != nil {
		return fmt.Errorf("session: snapshot upsert: %w", err)
	}
	l.refreshTTL(ctx, historyKey(sessionID))
	return nil
}

// SnapshotRead implements Ledger.
func (l *RedisLedger) SnapshotRead(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := l.client.Get(ctx, snapshotKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: snapshot read: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("session: corrupt snapshot for %q: %w", sessionID, err)
	}
	return &snap, nil
}

// RecentSessions implements Lister.
func (l *RedisLedger) RecentSessions(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []Snapshot
	iter := l.client.Scan(ctx, 0, redisKeyPrefix+"*:snapshot", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		sessionID := strings.TrimSuffix(strings.TrimPrefix(key, redisKeyPrefix), ":snapshot")
		snap, err := l.SnapshotRead(ctx, sessionID)
		if err != nil || snap == nil {
			continue // key expired between scan and read
		}
		out = append(out, *snap)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("session: list sessions: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *RedisLedger) expiry() time.Duration {
	if l.ttl <= 0 {
		return 0
	}
	return l.ttl
}

// refreshTTL keeps both session keys on the same expiry clock.
// Best-effort: a failed EXPIRE only delays cleanup.
func (l *RedisLedger) refreshTTL(ctx context.Context, key string) {
	if l.ttl > 0 {
		_ = l.client.Expire(ctx, key, l.ttl).Err()
	}
}
