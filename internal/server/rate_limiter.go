package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/streamhaus/chatbridge/internal/domain"
)

const limiterIdleCutoff = 10 * time.Minute

// tenantRateLimiter caps broadcast-triggering API calls per tenant using a
// token bucket per tenant. Idle buckets are dropped periodically.
type tenantRateLimiter struct {
	mu        sync.Mutex
	limiters  map[domain.TenantID]*limiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newTenantRateLimiter(perMinute int) *tenantRateLimiter {
	// Config validation enforces a positive rate; a zero-value Config must
	// still not divide by zero here.
	if perMinute < 1 {
		perMinute = 1
	}
	return &tenantRateLimiter{
		limiters:  make(map[domain.TenantID]*limiterEntry),
		rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Allow reports whether the tenant has a token available.
func (l *tenantRateLimiter) Allow(tenant domain.TenantID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.limiters[tenant]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[tenant] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes buckets idle for longer than the cutoff. Must be called
// with mu held.
func (l *tenantRateLimiter) cleanup() {
	cutoff := time.Now().Add(-limiterIdleCutoff)
	for tenant, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, tenant)
		}
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenant, err := tenantFromPath(c)
		if err != nil {
			return err
		}
		if !s.limiter.Allow(tenant) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}
