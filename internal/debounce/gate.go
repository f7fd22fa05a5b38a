// Package debounce collapses bursts of change notifications into a single
// delayed trigger.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the delay used when New is given a non-positive delay.
const DefaultDelay = 250 * time.Millisecond

// Gate schedules at most one pending trigger at a time. Notify calls made
// while a trigger is pending are absorbed into it; the window is not
// extended. Gate is safe for concurrent use.
type Gate struct {
	delay time.Duration
	fire  func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

// New returns a Gate that invokes fire once per burst, delay after the first
// Notify of the burst. fire runs on a timer goroutine and must hand off to
// its owner rather than mutate shared state itself.
func New(delay time.Duration, fire func()) *Gate {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Gate{delay: delay, fire: fire}
}

// Notify arms the trigger unless one is already pending or the gate is
// stopped. It reports whether this call scheduled a new trigger.
func (g *Gate) Notify() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending || g.stopped {
		return false
	}
	g.pending = true
	g.timer = time.AfterFunc(g.delay, g.trigger)
	return true
}

// Pending reports whether a trigger is currently scheduled.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Delay returns the configured debounce delay.
func (g *Gate) Delay() time.Duration {
	return g.delay
}

// Stop cancels any pending trigger and makes further Notify calls no-ops.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
	}
	g.pending = false
}

func (g *Gate) trigger() {
	g.mu.Lock()
	if g.stopped || !g.pending {
		g.mu.Unlock()
		return
	}
	g.pending = false
	g.mu.Unlock()

	g.fire()
}
