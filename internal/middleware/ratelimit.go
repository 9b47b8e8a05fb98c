package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string // e.g. "auth", keys become auth:<client ip>
}

// window is the state of one client's fixed window after counting a request.
type window struct {
	count int64
	ttl   time.Duration
}

// fixedWindow increments the counter and starts its expiry on the first hit
// of a window, atomically on the redis side.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

func hit(ctx context.Context, rdb *redis.Client, key string, period time.Duration) (window, error) {
	res, err := fixedWindow.Run(ctx, rdb, []string{key}, period.Milliseconds()).Int64Slice()
	if err != nil {
		return window{}, err
	}
	if len(res) != 2 {
		return window{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}

	w := window{count: res[0], ttl: time.Duration(res[1]) * time.Millisecond}
	if w.ttl <= 0 {
		w.ttl = period
	}
	return w, nil
}

// RateLimitMiddleware limits each client address to RequestsPerWindow requests
// per fixed window. Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RealIP runs earlier, so RemoteAddr is the client address.
			client := clientIP(r.RemoteAddr)
			key := config.KeyPrefix + ":" + client

			state, err := hit(r.Context(), redisClient, key, config.Window)
			if err != nil {
				logger.Error("Rate limit check failed, allowing request",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)

			remaining := int64(config.RequestsPerWindow) - state.count
			if remaining < 0 {
				logger.Warn("Rate limit exceeded",
					zap.String("client_ip", client),
					zap.String("path", r.URL.Path),
					zap.Int64("count", state.count),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(state.ttl).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(state.ttl.Seconds())))

				RespondWithError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
