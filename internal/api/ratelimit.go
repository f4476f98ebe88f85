package api

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// authRateLimiter counts requests per action and client IP in fixed
// one-minute windows.
type authRateLimiter struct {
	enabled bool
	limits  map[string]int
	now     func() time.Time

	mu       sync.Mutex
	window   int64
	counters map[string]int
}

func newAuthRateLimiter(cfg RateLimitPolicy) *authRateLimiter {
	l := &authRateLimiter{
		enabled: cfg.Enabled,
		limits: map[string]int{
			"read":    cfg.ReadPerMinute,
			"webhook": cfg.WebhookPerMinute,
		},
		now:      time.Now,
		counters: make(map[string]int),
	}
	l.window = l.currentWindow()
	return l
}

func (l *authRateLimiter) Allow(r *http.Request, action string) bool {
	if l == nil || !l.enabled {
		return true
	}
	action = strings.TrimSpace(action)
	limit := l.limits[action]
	if limit <= 0 {
		return true
	}
	nowWindow := l.currentWindow()
	key := action + "|" + requestRemoteIP(r)

	l.mu.Lock()
	defer l.mu.Unlock()
	if nowWindow != l.window {
		l.window = nowWindow
		l.counters = make(map[string]int)
	}
	l.counters[key]++
	return l.counters[key] <= limit
}

func (l *authRateLimiter) currentWindow() int64 {
	return l.now().UTC().Unix() / 60
}
