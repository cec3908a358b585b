package ratelimiter

import (
	"sync"
	"time"
)

// Limiter lets at most one event through per interval.
// It is safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         func() time.Time
}

// New creates a limiter using the wall clock.
// A non-positive interval allows every event.
func New(interval time.Duration) *Limiter {
	return NewWithClock(interval, time.Now)
}

// NewWithClock creates a limiter reading time from now
func NewWithClock(interval time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		interval: interval,
		now:      now,
	}
}

// Allow checks if an event may pass now.
// Returns true if allowed (and records the time), or false with the
// remaining wait duration.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.interval <= 0 || l.lastAllowed.IsZero() {
		l.lastAllowed = now
		return true, 0
	}

	elapsed := now.Sub(l.lastAllowed)
	if elapsed >= l.interval {
		l.lastAllowed = now
		return true, 0
	}

	return false, l.interval - elapsed
}

// Arm starts a window at the current time without letting an event
// through, so the first Allow succeeds only after a full interval.
func (l *Limiter) Arm() {
	l.mu.Lock()
	l.lastAllowed = l.now()
	l.mu.Unlock()
}

// Reset clears the limiter state, allowing the next event immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.mu.Unlock()
}

// Interval returns the configured interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
