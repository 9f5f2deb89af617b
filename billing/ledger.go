package billing

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLedgerTTL outlives Stripe's retry window for webhook deliveries.
const DefaultLedgerTTL = 30 * 24 * time.Hour

// Ledger remembers which checkout sessions have already been applied.
type Ledger interface {
	// Claim returns true the first time key is seen.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a retried delivery can be applied.
	Release(ctx context.Context, key string) error
}

type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, ledgerKey(key), 1, l.ttl).Result()
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, ledgerKey(key)).Err()
}

func ledgerKey(key string) string {
	return "stripe:checkout:" + key
}

// MemoryLedger is the single-process fallback when Redis is not configured.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.seen, key)
	return nil
}
