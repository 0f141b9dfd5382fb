// Package middleware provides HTTP middleware components
package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultCleanupInterval = 5 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket each.
// Idle clients are swept on access once per cleanup interval.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	cleanup time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter from configuration
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = defaultCleanupInterval
	}

	return &RateLimiter{
		limit:     rate.Limit(float64(cfg.RequestsPerMin) / 60),
		burst:     burst,
		cleanup:   cleanup,
		logger:    logger.Named("ratelimit"),
		now:       time.Now,
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
	}
}

// Allow reports whether a request from key may proceed
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.cleanup {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) >= l.cleanup {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Handler rejects requests over the client's limit with 429
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if l.Allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.Warn("Rate limit exceeded",
			zap.String("client_ip", key),
			zap.String("path", r.URL.Path),
		)

		appErr := errors.NewTooManyRequestsError()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
		w.WriteHeader(appErr.StatusCode())
		_ = json.NewEncoder(w).Encode(errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
	})
}

func (l *RateLimiter) retryAfter() int {
	if l.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(l.limit)))
}

// clientIP reads the address set by chi's RealIP, without the port
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
