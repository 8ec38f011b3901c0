package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy is exponential backoff with jitter. The bridge uses it for cash
// update reports: a lost report means lost money, so those are retried
// hard; poll requests are not retried at all, the next tick covers them.
type Policy struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

func Do(ctx context.Context, p Policy, fn func() error) error {
	d := p.Base
	var err error

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < p.Attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}

		delay := d
		if p.JitterFactor > 0 {
			jitter := 1 + p.JitterFactor*(2*r.Float64()-1)
			delay = time.Duration(float64(delay) * jitter)
		}
		if p.Max > 0 && delay > p.Max {
			delay = p.Max
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		d *= 2
		if p.Max > 0 && d > p.Max {
			d = p.Max
		}
	}
	return err
}
