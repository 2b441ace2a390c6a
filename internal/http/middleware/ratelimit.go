package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mediaplatform/catalog-service/internal/ratelimit"
	"github.com/mediaplatform/catalog-service/internal/utils/response"
)

type RateLimitConfig struct {
	redisClient *redis.Client
	limiters    map[string]*ratelimit.SlidingWindow
	limits      map[string]int64
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		redisClient: redisClient,
		limiters:    make(map[string]*ratelimit.SlidingWindow),
		limits:      make(map[string]int64),
	}

	// POST /media/{id}/view: 5/min per client address
	config.limiters["view"] = ratelimit.NewSlidingWindow(redisClient, 5, time.Minute)
	config.limits["view"] = 5

	return config
}

// RateLimitMiddleware admits or rejects requests per client address.
// A rejected request never reaches the handler. A limiter backend
// failure admits the request with a warning; the limiter is not a
// correctness dependency for the endpoint it guards.
func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientIP(r)

			// Get the appropriate rate limiter
			limiter, exists := rlc.limiters[action]
			if !exists {
				// If no rate limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			// Check if the client is allowed to perform this action
			allowed, err := limiter.Allow(r.Context(), clientID, action)
			if err != nil {
				slog.Warn("rate limit check failed, admitting request",
					slog.String("client", clientID), slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			limit := strconv.FormatInt(rlc.limits[action], 10)

			if !allowed {
				remaining, _ := limiter.GetRemaining(r.Context(), clientID, action)

				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
				w.Header().Set("X-RateLimit-Reset", "60")

				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), clientID, action)

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}

// ClientIP resolves the originating client address, trusting proxy
// headers before falling back to the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
