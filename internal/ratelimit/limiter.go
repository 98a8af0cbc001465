// Package ratelimit implements the gateway's global admission control: a
// fixed-window counter per client source address. Over-ceiling requests are
// rejected, never queued. A fixed window admits at most 2N requests across
// one boundary; that is accepted behavior for this layer.
package ratelimit

import (
	"sync"
	"time"
)

// entry tracks request counts for a single source key.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter admits or rejects requests per source key over a fixed window.
// The zero value is not usable; call New.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration
}

// New creates a limiter allowing limit requests per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
	}
}

// Admit records a request for key and reports whether it may proceed. On
// rejection retryAfter is the time until the window resets, rounded up to a
// whole second; the counter is left untouched so rejected traffic never
// extends or resets a window.
func (l *Limiter) Admit(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	// Lazy cleanup: drop expired entries so idle keys don't accumulate.
	for k, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, k)
		}
	}

	e, found := l.entries[key]
	if !found {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	// Window expired but survived cleanup (resetAt exactly now): start fresh.
	if now.After(e.resetAt) {
		e.count = 1
		e.resetAt = now.Add(l.window)
		return true, 0
	}

	if e.count >= l.limit {
		retry := e.resetAt.Sub(now)
		if rem := retry % time.Second; rem != 0 {
			retry += time.Second - rem
		}
		if retry < time.Second {
			retry = time.Second
		}
		return false, retry
	}

	e.count++
	return true, 0
}

// Len reports the number of tracked keys. Eviction is lazy, so the count
// only shrinks on Admit.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
