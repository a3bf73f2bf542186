package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/taskcloud/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRateLimit is used when RATE_LIMIT is empty
const DefaultRateLimit = "20-S"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RateLimiter limits requests per client IP with ulule/limiter over a Redis store
type RateLimiter struct {
	instance *limiter.Limiter
}

// NewRateLimiter parses a formatted rate such as "20-S" or "1000-H".
// Keys are namespaced by prefix so several limiters can share one Redis.
func NewRateLimiter(client *redis.Client, rate, prefix string) (*RateLimiter, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return &RateLimiter{instance: limiter.New(store, parsed)}, nil
}

// Middleware returns the rate limiting middleware. Over-limit requests get a
// 429 envelope.
func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	mw := stdlibmw.NewMiddleware(l.instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			respondError(w, http.StatusInternalServerError, "Rate limiter unavailable")
		}),
	)
	return mw.Handler
}
