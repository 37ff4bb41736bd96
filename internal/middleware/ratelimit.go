package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"skillenergy/internal/api/v1/response"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Counter counts hits per key inside a fixed window.
type Counter interface {
	// Incr bumps key and starts its window on the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RedisCounter is a Counter backed by INCR and EXPIRE.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *RedisCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, key).Result()
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	counter    Counter
	trustProxy bool
	log        zerolog.Logger
}

// NewRateLimiter keys buckets on RemoteAddr. With trustProxy set it keys them on the
// X-Forwarded-For entry appended by the proxy in front of the service instead.
func NewRateLimiter(counter Counter, trustProxy bool, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counter:    counter,
		trustProxy: trustProxy,
		log:        logger.With().Str("middleware", "ratelimit").Logger(),
	}
}

// Limit allows limit requests per window for each IP under keySuffix.
// When the counter is unavailable requests go through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, clientIP(r, rl.trustProxy))

			count, err := rl.counter.Incr(r.Context(), key, window)
			if err != nil {
				rl.log.Warn().Err(err).Str("key", key).Msg("Rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				ttl, _ := rl.counter.TTL(r.Context(), key)
				if ttl < 0 {
					ttl = window
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(ttl.Seconds())))
				response.Fail(w, http.StatusTooManyRequests,
					fmt.Sprintf("Too many requests. Please try again in %.0f minutes.", math.Ceil(ttl.Minutes())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP ignores X-Forwarded-For unless trustProxy is set, since any client can
// send it. A proxy appends the peer it saw, so only the last entry is its own.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			last := fwd[strings.LastIndex(fwd, ",")+1:]
			if ip := strings.TrimSpace(last); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
