package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-wallet rate limiting for API requests
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	limit rate.Limit
	// Burst size (number of requests that can be made in a burst)
	burstSize int
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// per wallet.
func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		limit:     rate.Limit(rps),
		burstSize: 10, // Allow bursts of 10 requests
	}
}

// getLimiter returns the rate limiter for a specific caller key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burstSize)
	rl.limiters[key] = limiter
	return limiter
}

// Allow reports whether the caller identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// callerKey identifies the caller for rate limiting: the wallet header when
// present, otherwise the remote address.
func callerKey(r *http.Request) string {
	if wallet := r.Header.Get("X-Wallet-Address"); wallet != "" {
		return wallet
	}
	return r.RemoteAddr
}
