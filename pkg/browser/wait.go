package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched by every *TimeoutError.
var ErrTimeout = errors.New("wait timed out")

// TimeoutError reports a condition that did not hold within its bound.
type TimeoutError struct {
	Desc    string
	Timeout time.Duration
	// Last is the most recent driver error seen while polling, if any
	Last error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("timed out after %s waiting for %s (last error: %v)", e.Timeout, e.Desc, e.Last)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Desc)
}

// Is lets errors.Is(err, ErrTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Clock abstracts time so waits can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Default polling intervals
const (
	DefaultPollInterval    = 250 * time.Millisecond
	DefaultPollMaxInterval = 2 * time.Second
)

// Poller evaluates conditions until they hold or a timeout elapses. The
// interval between checks doubles after every miss, capped at MaxInterval.
type Poller struct {
	clock       Clock
	interval    time.Duration
	maxInterval time.Duration
}

// NewPoller creates a poller. Zero intervals fall back to the defaults.
func NewPoller(clock Clock, interval, maxInterval time.Duration) *Poller {
	if clock == nil {
		clock = SystemClock
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxInterval < interval {
		maxInterval = max(interval, DefaultPollMaxInterval)
	}
	return &Poller{
		clock:       clock,
		interval:    interval,
		maxInterval: maxInterval,
	}
}

// Clock returns the poller's clock.
func (p *Poller) Clock() Clock {
	return p.clock
}

// Idle blocks for d. It is the bounded idle-period form of a wait.
func (p *Poller) Idle(ctx context.Context, d time.Duration) error {
	return p.clock.Sleep(ctx, d)
}

// WaitUntil checks cond until it holds, returning the element it matched.
// The condition is always checked at least once, and once more at the
// deadline. Driver errors during polling are treated as "not yet" and the
// last one is attached to the resulting *TimeoutError.
func (p *Poller) WaitUntil(ctx context.Context, d Driver, cond Condition, timeout time.Duration) (Element, error) {
	deadline := p.clock.Now().Add(timeout)
	interval := p.interval
	var last error

	for {
		el, ok, err := cond.Check(d)
		if err != nil {
			last = err
		} else if ok {
			return el, nil
		}

		remaining := deadline.Sub(p.clock.Now())
		if remaining <= 0 {
			return nil, &TimeoutError{Desc: cond.Desc, Timeout: timeout, Last: last}
		}

		if err := p.clock.Sleep(ctx, min(interval, remaining)); err != nil {
			return nil, err
		}
		interval = min(interval*2, p.maxInterval)
	}
}
