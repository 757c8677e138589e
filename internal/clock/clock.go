// Package clock abstracts the time source so that countdowns, simulated
// payment delays and background sweeps can be driven deterministically in
// tests.
package clock

import "time"

// Clock is the subset of the time package the service depends on.
// Production code injects Real(); tests inject Fake().
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d has elapsed. The returned Timer can
	// cancel the pending call.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers ticks on C every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the call from running. It reports whether the call was
// still pending.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Ticker delivers periodic ticks. C is buffered with capacity 1; ticks
// are dropped while the consumer lags behind.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stopFunc() }
