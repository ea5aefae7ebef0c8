package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles callers with a token bucket per key. Authenticated
// requests are keyed by patient id so a clinic front desk behind one NAT
// does not exhaust a shared budget; anonymous requests fall back to the
// client IP.
type RateLimiter struct {
	mu     sync.Mutex
	perKey map[string]*tokenBucket
	rate   float64
	burst  float64
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests per second with the given burst per key.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		perKey: make(map[string]*tokenBucket),
		rate:   rate,
		burst:  float64(burst),
	}
	go rl.evictStale()
	return rl
}

// Allow reports whether one more request from key fits the budget.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.perKey[key]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, seen: now}
		rl.perKey[key] = b
	}

	b.tokens = min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.rate)
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Buckets idle for 10 minutes never refill past burst anyway, so drop them.
func (rl *RateLimiter) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for key, b := range rl.perKey {
			if b.seen.Before(cutoff) {
				delete(rl.perKey, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-budget requests with 429 and a Retry-After hint.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			// chi's RealIP middleware rewrites RemoteAddr behind a proxy,
			// but X-Real-Ip survives even when RealIP is not mounted.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				key = xri
			}
			if patientID, ok := PatientIDFromContext(r.Context()); ok {
				key = "patient:" + patientID.String()
			}
			if !limiter.Allow(key) {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
