package booking

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"smartbus/internal/clock"
	"smartbus/internal/domain"
	"smartbus/internal/utils"
)

const (
	// DisqualificationWindow is how long after scheduled arrival a ticket
	// can still be scanned by the driver.
	DisqualificationWindow = 30 * time.Minute
	// WarningThreshold raises the countdown warning for qualified tickets.
	WarningThreshold = 5 * time.Minute
	// TickInterval is the countdown refresh period.
	TickInterval = time.Second
)

type TicketState string

const (
	StateQualified    TicketState = "QUALIFIED"
	StateDisqualified TicketState = "DISQUALIFIED"
	StateScanned      TicketState = "SCANNED"
)

// ExpiryFor returns arrival + DisqualificationWindow.
func ExpiryFor(arrival time.Time) time.Time {
	return arrival.Add(DisqualificationWindow)
}

// ParseArrival reads a full timestamp in now's location, or an "HH:MM"
// clock time which is anchored to now's calendar date.
func ParseArrival(now time.Time, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ValidationError{Field: "arrival_time", Msg: "required"}
	}
	if t, ok := utils.ParseDateTime(raw, now.Location()); ok {
		return t, nil
	}
	return ArrivalToday(now, raw)
}

// ArrivalToday anchors an "HH:MM" clock time to the date of now.
func ArrivalToday(now time.Time, hhmm string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(hhmm), "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, domain.ValidationError{Field: "arrival_time", Msg: "expected HH:MM", Err: err}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, domain.ValidationError{Field: "arrival_time", Msg: "out of range"}
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location()), nil
}

// Countdown is one evaluation of a ticket's qualification.
type Countdown struct {
	State     TicketState
	ExpiresAt time.Time
	// Remaining is expiry minus now. Zero or negative once disqualified.
	Remaining time.Duration
	Warning   bool
}

// Evaluate computes the countdown at now. A scanned ticket stays SCANNED
// regardless of time.
func Evaluate(expiresAt, now time.Time, scanned bool) Countdown {
	c := Countdown{ExpiresAt: expiresAt, Remaining: expiresAt.Sub(now)}
	switch {
	case scanned:
		c.State = StateScanned
	case c.Remaining > 0:
		c.State = StateQualified
		c.Warning = c.Remaining < WarningThreshold
	default:
		c.State = StateDisqualified
	}
	return c
}

// RemainingSeconds floors Remaining to whole seconds.
func (c Countdown) RemainingSeconds() int64 {
	secs := int64(c.Remaining / time.Second)
	if c.Remaining < 0 && c.Remaining%time.Second != 0 {
		secs--
	}
	return secs
}

// Display renders the remaining time as MM:SS, clamped at 00:00.
func (c Countdown) Display() string {
	secs := c.RemainingSeconds()
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Watcher re-evaluates a countdown once per TickInterval and hands each
// snapshot to a callback, until Stop is called or the state turns SCANNED.
type Watcher struct {
	clk      clock.Clock
	evaluate func(time.Time) Countdown
	onTick   func(Countdown)

	mu      sync.Mutex
	timer   *clock.Timer
	last    Countdown
	stopped bool
}

// Watch evaluates immediately, reports the first snapshot, and schedules
// the next tick.
func Watch(clk clock.Clock, evaluate func(time.Time) Countdown, onTick func(Countdown)) *Watcher {
	w := &Watcher{clk: clk, evaluate: evaluate, onTick: onTick}
	w.tick()
	return w
}

func (w *Watcher) tick() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	c := w.evaluate(w.clk.Now())
	w.last = c
	if c.State == StateScanned {
		w.stopped = true
	} else {
		w.timer = w.clk.AfterFunc(TickInterval, w.tick)
	}
	w.mu.Unlock()

	if w.onTick != nil {
		w.onTick(c)
	}
}

// Last returns the most recent snapshot.
func (w *Watcher) Last() Countdown {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Stop cancels the pending tick. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}
