package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, RateLimitInfo, error)
}

// RateLimitInfo is the state of a key's current window
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func newInfo(limit int, count int64, resetAt time.Time) RateLimitInfo {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitInfo{Limit: limit, Remaining: remaining, ResetAt: resetAt}
}

// RedisLimiter keeps window counters in Redis so every server instance
// shares them
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter creates a limiter allowing limit requests per window
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

// Allow increments key's counter, starting a new window on the first hit
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, RateLimitInfo, error) {
	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, RateLimitInfo{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, RateLimitInfo{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, RateLimitInfo{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// counter survived without an expiry; restart its window
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, RateLimitInfo{}, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = l.window
	}

	info := newInfo(l.limit, count, l.now().Add(ttl))
	return count <= int64(l.limit), info, nil
}

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter is the single-process limiter used when Redis is not configured
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*fixedWindow
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, RateLimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &fixedWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= int64(l.limit), newInfo(l.limit, w.count, w.resetAt), nil
}

// sweep drops expired windows; callers hold mu
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

// RateLimit limits requests per authenticated principal, or per client IP
// before authentication. Limiter failures let the request through.
func RateLimit(limiter RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p, ok := PrincipalFrom(c); ok {
			key = "user:" + p.UserID.String()
		}

		allowed, info, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(info.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
