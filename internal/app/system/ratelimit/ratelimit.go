// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/normalize"
)

// Limiter counts requests per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// Call Close to stop its cleanup goroutine.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the count for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP, preferring X-Forwarded-For and X-Real-IP
// for proxied requests, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles login attempts per client IP and per identifier
// (email or nim), so neither one address nor one account can be hammered.
type LoginLimiter struct {
	ip      *Limiter
	account *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per account per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, accountLimit int, accountWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:      New(ipLimit, ipWindow),
		account: New(accountLimit, accountWindow),
	}
}

// Check records an attempt and returns false with a message when blocked.
func (ll *LoginLimiter) Check(r *http.Request, identifier string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "too many login attempts; wait a minute before trying again"
	}
	if key := normalize.Identifier(identifier); key != "" {
		if !ll.account.Allow(key) {
			return false, "too many login attempts for this account; wait a few minutes"
		}
	}
	return true, ""
}

// ResetAccount clears the per-account count after a successful login.
func (ll *LoginLimiter) ResetAccount(identifier string) {
	if key := normalize.Identifier(identifier); key != "" {
		ll.account.Reset(key)
	}
}

// Close stops both limiters.
func (ll *LoginLimiter) Close() {
	ll.ip.Close()
	ll.account.Close()
}
