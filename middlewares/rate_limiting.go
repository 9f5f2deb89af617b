package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/globizora/api-service/utils"
	"github.com/redis/go-redis/v9"
)

const rateLimitMessage = "Too many requests, please try again later."

// Counter decides whether another request under key fits in the current window.
type Counter interface {
	Allow(ctx context.Context, key string, max int64, window time.Duration) (bool, error)
}

func GlobalRateLimiter(counter Counter, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rate_limit:site:%s", getIP(r))

			allowed, err := counter.Allow(r.Context(), key, int64(max), window)
			if err != nil {
				// fail open while the counter backend is down
				log.Printf("Rate limiter unavailable: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				utils.RespondError(w, http.StatusTooManyRequests, rateLimitMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RedisCounter is a fixed-window counter shared by every instance.
type RedisCounter struct {
	Client *redis.Client
}

func (c *RedisCounter) Allow(ctx context.Context, key string, max int64, window time.Duration) (bool, error) {
	current, err := c.Client.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}

	if current >= max {
		return false, nil
	}

	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= max, nil
}

// MemoryCounter is the per-process counter used when Redis is not configured.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{now: time.Now, windows: make(map[string]*window)}
}

func (c *MemoryCounter) Allow(_ context.Context, key string, max int64, length time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	win, ok := c.windows[key]
	if !ok || !now.Before(win.resetAt) {
		win = &window{resetAt: now.Add(length)}
		c.windows[key] = win
		c.sweep(now)
	}

	if win.count >= max {
		return false, nil
	}
	win.count++
	return true, nil
}

// sweep drops expired windows so idle clients do not accumulate.
func (c *MemoryCounter) sweep(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, k)
		}
	}
}
