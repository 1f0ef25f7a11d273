package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sari-backend/internal/config"
	"sari-backend/internal/models"
)

const (
	// SnapshotKey holds the raw ledger inputs: every credit record with its
	// payments plus the customer directory. Balances and overdue flags are
	// recomputed from it on each read.
	SnapshotKey = "utang:snapshot"

	defaultTTL = 5 * time.Minute
)

// Snapshot is what the utang list needs to consolidate without touching Postgres
type Snapshot struct {
	Records   []models.CreditRecord `json:"records"`
	Customers []models.Customer     `json:"customers"`
	TakenAt   time.Time             `json:"taken_at"`
}

// Connect opens a Redis client and pings it
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// LedgerCache stores the utang snapshot. A nil client disables caching:
// every Get misses and writes are no-ops.
type LedgerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLedgerCache(client *redis.Client, ttl time.Duration) *LedgerCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LedgerCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot. ok is false on a miss or when the cached
// value cannot be decoded.
func (c *LedgerCache) Get(ctx context.Context) (*Snapshot, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, SnapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

func (c *LedgerCache) Set(ctx context.Context, snap *Snapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SnapshotKey, data, c.ttl).Err()
}

// Invalidate drops the snapshot. Called after every payment, new credit
// record, checkout and customer change.
func (c *LedgerCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, SnapshotKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping reports whether Redis is reachable
func (c *LedgerCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("redis disabled")
	}
	return c.client.Ping(ctx).Err()
}
