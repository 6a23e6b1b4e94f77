// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles scrape attempts per marketplace host so repeated
// batches do not hammer a single site.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed, or the
	// context is cancelled.
	Wait(ctx context.Context, urlStr string) error

	// Allow checks if a request for the given URL can proceed immediately.
	Allow(urlStr string) bool
}

// HostLimiter implements per-host token-bucket rate limiting.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter with the given per-host rate.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 2
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed.
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	host := extractHost(urlStr)
	if host == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}
	return hl.getLimiter(host).Wait(ctx)
}

// Allow checks if a request can proceed immediately without blocking.
func (hl *HostLimiter) Allow(urlStr string) bool {
	host := extractHost(urlStr)
	if host == "" {
		return true
	}
	return hl.getLimiter(host).Allow()
}

func (hl *HostLimiter) getLimiter(host string) *rate.Limiter {
	hl.mu.RLock()
	limiter, exists := hl.limiters[host]
	hl.mu.RUnlock()
	if exists {
		return limiter
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if limiter, exists := hl.limiters[host]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = limiter
	return limiter
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
