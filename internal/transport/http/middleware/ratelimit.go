package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/shared"
)

type rateWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter applies a fixed per-minute window per actor. Sensitive
// paths (login, impersonation, pay run approval and generation, payment
// recording) get a tighter budget than the general API.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	limit     int
	window    time.Duration
	lastSweep time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		windows:   make(map[string]*rateWindow),
		limit:     perMinute,
		window:    time.Minute,
		lastSweep: time.Now(),
	}
}

var sensitivePrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/switch-company",
	"/api/v1/paies",
}

var sensitiveSuffixes = []string{
	"/approve",
	"/generate-payslips",
}

func sensitivePath(path string) bool {
	for _, prefix := range sensitivePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// actorKey prefers the authenticated user over the client IP, so one
// noisy tenant cannot exhaust another's budget behind a shared proxy.
func (rl *RateLimiter) actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok {
		return "user:" + user.UserID
	}
	return "ip:" + shared.ClientIP(r)
}

func (rl *RateLimiter) allow(key string, limit int) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > 5*time.Minute {
		for k, w := range rl.windows {
			if now.Sub(w.windowStart) > rl.window {
				delete(rl.windows, k)
			}
		}
		rl.lastSweep = now
	}

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.windowStart) > rl.window {
		rl.windows[key] = &rateWindow{count: 1, windowStart: now}
		return true
	}
	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		limit := rl.limit
		key := "ip:" + shared.ClientIP(r)
		if sensitivePath(r.URL.Path) {
			limit = rl.limit / 6
			if limit < 5 {
				limit = 5
			}
			key = r.URL.Path + "|" + rl.actorKey(r)
		}

		if !rl.allow(key, limit) {
			slog.Warn("rate limit exceeded",
				"path", r.URL.Path,
				"key", key,
				"requestId", GetRequestID(r.Context()))
			w.Header().Set("Retry-After", "60")
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
