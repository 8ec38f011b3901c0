package circuit

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit open")

type State int

const (
	Closed   State = iota // normal operation
	Open                  // blocking all requests until the timeout passes
	HalfOpen              // letting a few trial requests through
)

// Breaker guards the bridge's calls to the kiosk API. The bridge runs on
// the far side of a flaky consumer uplink; when the server is unreachable
// there is no point hammering it every poll tick.
// After 'threshold' consecutive failures in Closed it opens; after 'wait'
// it lets up to 'maxHalfOpen' trials through. Outcomes are reported with
// explicit Success()/Failure() calls.
type Breaker struct {
	mu                 sync.Mutex
	state              State
	errs, threshold    int
	halfOpenAfter      time.Duration
	lastChange         time.Time
	trial, maxHalfOpen int
}

func New(threshold int, wait time.Duration, maxHalfOpen int) *Breaker {
	return &Breaker{
		state:         Closed,
		threshold:     threshold,
		halfOpenAfter: wait,
		lastChange:    time.Now(),
		maxHalfOpen:   maxHalfOpen,
	}
}

// Allow reports whether a request is permitted, transitioning
// Open→HalfOpen once the wait has elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.state {
	case Open:
		if now.Sub(b.lastChange) >= b.halfOpenAfter {
			b.transitionTo(now, HalfOpen)
			return nil
		}
		return ErrOpen
	case HalfOpen:
		if b.trial >= b.maxHalfOpen {
			return ErrOpen
		}
		b.trial++
		return nil
	default:
		return nil
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.transitionTo(time.Now(), Closed)
	case Closed:
		b.errs = 0
	}
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.state {
	case HalfOpen:
		b.transitionTo(now, Open)
	case Closed:
		b.errs++
		if b.errs >= b.threshold {
			b.transitionTo(now, Open)
		}
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transitionTo(now time.Time, next State) {
	b.state = next
	b.lastChange = now
	b.trial = 0
	if next == Closed {
		b.errs = 0
	}
}
