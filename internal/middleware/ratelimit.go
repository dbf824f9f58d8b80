// Package middleware holds the HTTP middleware of the status server.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter limits requests per client IP within a sliding window.
type RateLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	requests  map[string][]time.Time
	lastSweep time.Time
}

// NewRateLimiter allows max requests per client within window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:      max,
		window:   window,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
}

// Allow records a request from client and reports whether it is within the limit.
func (l *RateLimiter) Allow(client string) bool {
	now := l.now()
	start := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(start)
		l.lastSweep = now
	}

	valid := prune(l.requests[client], start)
	if len(valid) >= l.max {
		if len(valid) == 0 {
			delete(l.requests, client)
		} else {
			l.requests[client] = valid
		}
		return false
	}
	l.requests[client] = append(valid, now)
	return true
}

// sweep drops clients with no request after start.
func (l *RateLimiter) sweep(start time.Time) {
	for client, ts := range l.requests {
		if valid := prune(ts, start); len(valid) > 0 {
			l.requests[client] = valid
		} else {
			delete(l.requests, client)
		}
	}
}

// prune keeps the timestamps after start, reusing ts.
func prune(ts []time.Time, start time.Time) []time.Time {
	valid := ts[:0]
	for _, t := range ts {
		if t.After(start) {
			valid = append(valid, t)
		}
	}
	return valid
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}
