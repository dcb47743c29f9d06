// Package globaltime is the process-wide clock for sift. Session expiry and
// run timestamps read the time through it so tests can pin the clock with
// SetMockTime instead of sleeping.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

// Now returns the current time from the active clock.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

// UTC returns Now in UTC. Everything sift stores or compares is UTC.
func UTC() time.Time {
	return Now().UTC()
}

// SetMockTime freezes the clock at t until ResetTime is called. Tests using
// it must not run in parallel with other time-sensitive tests.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

// ResetTime restores the real clock.
func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
