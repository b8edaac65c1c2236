// Package ratelimit enforces per-project request quotas over a sliding
// time window. Requests over quota are rejected with 429 by the server.
package ratelimit

import (
	"sync"
	"time"
)

// Quota describes a project's allowance: at most Limit requests per Window.
type Quota struct {
	Limit  int
	Window time.Duration
}

// DefaultQuota allows 600 requests per minute.
var DefaultQuota = Quota{Limit: 600, Window: time.Minute}

// Limiter tracks request timestamps per project. Safe for concurrent use.
type Limiter struct {
	quota Quota

	mu      sync.Mutex
	windows map[string][]time.Time

	now func() time.Time
}

// NewLimiter creates a limiter with the given quota. A non-positive limit
// or window falls back to DefaultQuota.
func NewLimiter(quota Quota) *Limiter {
	if quota.Limit <= 0 || quota.Window <= 0 {
		quota = DefaultQuota
	}
	return &Limiter{
		quota:   quota,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one request for projectID and reports whether it fits the
// quota. Timestamps older than the window are discarded on every call.
func (l *Limiter) Allow(projectID string) bool {
	now := l.now()
	cutoff := now.Add(-l.quota.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[projectID]
	live := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= l.quota.Limit {
		l.windows[projectID] = live
		return false
	}
	l.windows[projectID] = append(live, now)
	return true
}

// Remaining reports how many requests projectID may still make in the
// current window.
func (l *Limiter) Remaining(projectID string) int {
	cutoff := l.now().Add(-l.quota.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, t := range l.windows[projectID] {
		if t.After(cutoff) {
			count++
		}
	}
	if count >= l.quota.Limit {
		return 0
	}
	return l.quota.Limit - count
}

// Reset clears the window for projectID.
func (l *Limiter) Reset(projectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, projectID)
}
