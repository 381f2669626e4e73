// Per-IP rate limiting for endpoints that consume the remote chat
// backend. Fixed-window counters, in memory.
package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter allows maxRate requests per IP per window.
type RateLimiter struct {
	mu      sync.Mutex
	counts  map[string]*window
	maxRate int
	span    time.Duration
}

type window struct {
	used    int
	resetAt time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(maxRate int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		counts:  make(map[string]*window),
		maxRate: maxRate,
		span:    span,
	}
}

// Allow reports whether ip may make another request, counting it if so.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.counts[ip]
	if !ok || now.After(w.resetAt) {
		// New window; opportunistically drop stale entries once the map
		// grows past a few hundred IPs.
		if len(rl.counts) > 512 {
			for k, v := range rl.counts {
				if now.After(v.resetAt) {
					delete(rl.counts, k)
				}
			}
		}
		w = &window{resetAt: now.Add(rl.span)}
		rl.counts[ip] = w
	}

	if w.used >= rl.maxRate {
		return false
	}
	w.used++
	return true
}

// limit wraps a handler with the rate limiter, keyed by remote IP.
func limit(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.span.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
