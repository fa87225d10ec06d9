// Package clock converts wall-clock time into the two event streams that
// drive a game session: per-frame time deltas and a once-per-second
// countdown tick.
package clock

import (
	"context"
	"time"
)

// FrameClock measures the time elapsed between consecutive frames.
type FrameClock struct {
	last    time.Time
	started bool
}

// Tick returns the milliseconds elapsed since the previous call.
// The first call and any non-increasing timestamp yield 0.
func (c *FrameClock) Tick(now time.Time) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	delta := float64(now.Sub(c.last)) / float64(time.Millisecond)
	if delta <= 0 {
		// Clock went backwards or stood still; keep the later reference.
		if now.After(c.last) {
			c.last = now
		}
		return 0
	}
	c.last = now
	return delta
}

// Reset forgets the previous frame so the next Tick yields 0.
func (c *FrameClock) Reset() {
	c.started = false
	c.last = time.Time{}
}

// Kind distinguishes driver events.
type Kind int

const (
	KindFrame Kind = iota
	KindCountdown
)

func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "frame"
	case KindCountdown:
		return "countdown"
	default:
		return "unknown"
	}
}

// Event is one driver emission. DeltaMillis is set for frame events only.
type Event struct {
	Kind        Kind
	DeltaMillis float64
}

// Driver emits frame and countdown events from a background goroutine.
//
// Frame deltas that cannot be delivered because the consumer is busy are
// folded into the next frame event, so simulated time is never lost.
// Countdown events are never dropped.
type Driver struct {
	frameInterval     time.Duration
	countdownInterval time.Duration
	now               func() time.Time
	events            chan Event
}

// NewDriver creates a driver running at fps frames per second with a
// one-second countdown.
func NewDriver(fps int) *Driver {
	if fps <= 0 {
		fps = 60
	}
	return NewDriverWithIntervals(time.Second/time.Duration(fps), time.Second)
}

// NewDriverWithIntervals creates a driver with explicit intervals.
func NewDriverWithIntervals(frame, countdown time.Duration) *Driver {
	return &Driver{
		frameInterval:     frame,
		countdownInterval: countdown,
		now:               time.Now,
		events:            make(chan Event, 4),
	}
}

// Events returns the subscription channel. It is closed when Run returns.
func (d *Driver) Events() <-chan Event {
	return d.events
}

// Start runs the driver in a new goroutine until ctx is cancelled.
func (d *Driver) Start(ctx context.Context) {
	go d.Run(ctx)
}

// Run emits events until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	defer close(d.events)

	frames := time.NewTicker(d.frameInterval)
	defer frames.Stop()
	countdown := time.NewTicker(d.countdownInterval)
	defer countdown.Stop()

	var fc FrameClock
	fc.Tick(d.now())
	var pending float64

	for {
		select {
		case <-ctx.Done():
			return

		case <-frames.C:
			pending += fc.Tick(d.now())
			select {
			case d.events <- Event{Kind: KindFrame, DeltaMillis: pending}:
				pending = 0
			default:
			}

		case <-countdown.C:
			select {
			case d.events <- Event{Kind: KindCountdown}:
			case <-ctx.Done():
				return
			}
		}
	}
}
