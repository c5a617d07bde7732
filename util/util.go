// Package util contains small helpers shared by commands.
package util

import (
	"sync"
	"time"
)

// SkipThrottler lets through at most one event per period and skips the rest.
// It is safe for concurrent use.
type SkipThrottler struct {
	d   time.Duration
	now func() time.Time

	mu      sync.Mutex
	last    time.Time
	skipped int
}

// NewSkipThrottler returns a throttler that lets through one event every d.
func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, now: time.Now, last: time.Date(0, 0, 0, 0, 0, 0, 0, time.UTC)}
	return tt
}

// Ok reports whether an event at the current time is let through.
func (tt *SkipThrottler) Ok() bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	now := tt.now()
	if now.Before(tt.last.Add(tt.d)) {
		tt.skipped++
		return false
	}

	tt.last = now
	tt.skipped = 0
	return true
}

// Skipped returns the number of events skipped since the last one let through.
func (tt *SkipThrottler) Skipped() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return tt.skipped
}
