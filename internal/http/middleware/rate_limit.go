package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// HitCounter counts requests per key in fixed windows.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Name     string                         // Prefix separating limiters that share a store
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting

	// TrustProxy makes the default key honour X-Forwarded-For and X-Real-IP.
	// Leave it off unless a reverse proxy overwrites those headers.
	TrustProxy bool
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	store  HitCounter
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter. A nil store disables limiting.
func NewRateLimiter(store HitCounter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc(config.TrustProxy)
	}
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.store == nil || rl.config.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					w.Header().Set("Retry-After", strconv.Itoa(int(rl.config.Window.Seconds())))
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow fails open when the store is unreachable.
func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	hashedKey := fmt.Sprintf("%s:%x", rl.config.Name, sha256.Sum256([]byte(key)))

	count, err := rl.store.Hit(ctx, hashedKey, rl.config.Window)
	if err != nil {
		logger.WarnContext(ctx, "Rate limit store unavailable, allowing request", "limiter", rl.config.Name, "error", err)
		return true
	}

	return count <= int64(rl.config.Requests)
}

// ClientIPKeyFunc limits by client IP.
func ClientIPKeyFunc(trustProxy bool) func(r *http.Request) []string {
	return func(r *http.Request) []string {
		if ip := ClientIP(r, trustProxy); ip != "" {
			return []string{"ip:" + ip}
		}
		return nil
	}
}

// ClientIP returns the caller's address. Forwarding headers are only read
// when trustProxy is set, and then the X-Forwarded-For entry appended by the
// proxy (the last one) wins over anything the client sent.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
