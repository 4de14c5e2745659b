package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

// Deduplicator records which change events have already been delivered so a
// webhook never receives the same detected change twice.
type Deduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Deduplicator backed by Redis. Keys expire after ttl; zero
// means they are kept forever.
func New(redisURL, password string, ttl time.Duration) (*Deduplicator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Deduplicator{rdb: rdb, ttl: ttl}, nil
}

// Close shuts down the Redis connection.
func (d *Deduplicator) Close() error {
	return d.rdb.Close()
}

// EventKey builds the dedup key for one emitted event on one trigger
// instance. The fingerprint hashes the kind-specific fields (JSON keys are
// sorted, so the hash is stable), leaving the timestamp out so a re-detected
// identical change maps to the same key.
func EventKey(instanceID int64, ev trigger.Event) string {
	fields, _ := json.Marshal(ev.Fields)
	h := sha256.Sum256(append([]byte(ev.Kind+"|"), fields...))
	return fmt.Sprintf("event:%d:%s:%s", instanceID, ev.Kind, hex.EncodeToString(h[:8]))
}

// AlertKey builds the dedup key for a crossing-style alert. Unlike EventKey
// it hashes no fields: one condition on one instance owns one stable key, so
// the key can be cleared when the condition resets and the next crossing is
// delivered again.
func AlertKey(instanceID int64, kind trigger.EventKind, condition string, threshold float64) string {
	return fmt.Sprintf("alert:%d:%s:%s:%g", instanceID, kind, condition, threshold)
}

// AlreadySent returns true if key was recorded and has not expired.
func (d *Deduplicator) AlreadySent(ctx context.Context, key string) bool {
	exists, err := d.rdb.Exists(ctx, key).Result()
	return err == nil && exists > 0
}

// Record marks key as sent.
func (d *Deduplicator) Record(ctx context.Context, key string) {
	d.rdb.Set(ctx, key, "1", d.ttl)
}

// Clear removes a dedup key so the alert can fire again when the condition
// resets.
func (d *Deduplicator) Clear(ctx context.Context, key string) {
	d.rdb.Del(ctx, key) //nolint:errcheck
}
