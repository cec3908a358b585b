package ratelimiter

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		advances []time.Duration // clock advance before each Allow() call
		want     []bool
	}{
		{
			name:     "first call always allowed",
			interval: time.Second,
			advances: []time.Duration{0},
			want:     []bool{true},
		},
		{
			name:     "second call immediately after is blocked",
			interval: time.Second,
			advances: []time.Duration{0, 0},
			want:     []bool{true, false},
		},
		{
			name:     "call after interval is allowed",
			interval: time.Second,
			advances: []time.Duration{0, time.Second},
			want:     []bool{true, true},
		},
		{
			name:     "window restarts from last allowed call",
			interval: time.Second,
			advances: []time.Duration{0, 600 * time.Millisecond, 600 * time.Millisecond, 600 * time.Millisecond},
			want:     []bool{true, false, true, false},
		},
		{
			name:     "zero interval allows everything",
			interval: 0,
			advances: []time.Duration{0, 0, 0},
			want:     []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			limiter := NewWithClock(tt.interval, clock.Now)

			for i, adv := range tt.advances {
				clock.Advance(adv)

				allowed, waitTime := limiter.Allow()
				if allowed != tt.want[i] {
					t.Errorf("call %d: Allow() = %v, want %v", i, allowed, tt.want[i])
				}
				if !allowed && waitTime <= 0 {
					t.Errorf("call %d: blocked but waitTime = %v, want > 0", i, waitTime)
				}
				if allowed && waitTime != 0 {
					t.Errorf("call %d: allowed but waitTime = %v, want 0", i, waitTime)
				}
			}
		})
	}
}

func TestLimiter_Arm(t *testing.T) {
	clock := newFakeClock()
	limiter := NewWithClock(2*time.Second, clock.Now)

	limiter.Arm()
	if allowed, wait := limiter.Allow(); allowed || wait != 2*time.Second {
		t.Fatalf("after Arm: Allow() = %v, %v; want false, 2s", allowed, wait)
	}

	clock.Advance(2 * time.Second)
	if allowed, _ := limiter.Allow(); !allowed {
		t.Fatal("call one interval after Arm should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	clock := newFakeClock()
	limiter := NewWithClock(time.Second, clock.Now)

	if allowed, _ := limiter.Allow(); !allowed {
		t.Fatal("first call should be allowed")
	}
	if allowed, _ := limiter.Allow(); allowed {
		t.Fatal("second call should be blocked")
	}

	limiter.Reset()

	if allowed, _ := limiter.Allow(); !allowed {
		t.Fatal("call after reset should be allowed")
	}
}

func TestLimiter_WaitTime(t *testing.T) {
	clock := newFakeClock()
	limiter := NewWithClock(100*time.Millisecond, clock.Now)

	limiter.Allow()
	clock.Advance(30 * time.Millisecond)

	allowed, waitTime := limiter.Allow()
	if allowed {
		t.Fatal("call after 30ms should be blocked")
	}
	if waitTime != 70*time.Millisecond {
		t.Errorf("waitTime = %v, want 70ms", waitTime)
	}
}

func TestLimiter_Interval(t *testing.T) {
	interval := 42 * time.Second
	limiter := New(interval)

	if got := limiter.Interval(); got != interval {
		t.Errorf("Interval() = %v, want %v", got, interval)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow(); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowedCount != 1 {
		t.Errorf("concurrent calls: %d allowed, want exactly 1", allowedCount)
	}
}
