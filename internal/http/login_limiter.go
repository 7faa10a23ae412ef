package httpx

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepEvery  = 5 * time.Minute
	msgTooManyAttempts = "Too many sign-in attempts. Please wait a moment and try again."
	defaultLoginPerMin = 10
	defaultLoginBurst  = 5
)

// LoginLimiter throttles credential submissions per client address using a
// token bucket per address. A nil *LoginLimiter allows everything.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	sweepAt  time.Time
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute sustained attempts per address with the
// given burst. Non-positive values fall back to 10/min with a burst of 5.
func NewLoginLimiter(perMinute float64, burst int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = defaultLoginPerMin
	}
	if burst <= 0 {
		burst = defaultLoginBurst
	}
	return &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perMinute / 60),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether another attempt from addr may proceed.
func (l *LoginLimiter) Allow(addr string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	// The first sweep is scheduled from the first attempt's clock.
	if l.sweepAt.IsZero() {
		l.sweepAt = now.Add(limiterSweepEvery)
	}
	if now.After(l.sweepAt) {
		l.sweep(now)
		l.sweepAt = now.Add(limiterSweepEvery)
	}

	entry, ok := l.limiters[addr]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[addr] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Must be called with mu held.
func (l *LoginLimiter) sweep(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for addr, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, addr)
		}
	}
}

// Tracked returns the number of addresses with a live bucket.
func (l *LoginLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientAddr is the connection's remote host. Forwarding headers are ignored
// since any client can set them.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
