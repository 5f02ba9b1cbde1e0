package client

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// Poller calls Fetch every Interval. After a failure it waits with
// exponential backoff, capped at MaxBackoff and jittered by up to half the
// delay, until a call succeeds again.
type Poller struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Fetch      func(ctx context.Context) error

	rand *rand.Rand
}

func NewPoller(interval time.Duration, fetch func(ctx context.Context) error) *Poller {
	return &Poller{
		Interval:   interval,
		MaxBackoff: 2 * time.Minute,
		Fetch:      fetch,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns the wait before the next call given the number of
// consecutive failures so far.
func (p *Poller) Delay(failures int) time.Duration {
	if failures <= 0 {
		return p.Interval
	}
	delay := p.Interval
	for i := 0; i < failures && delay < p.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > p.MaxBackoff {
		delay = p.MaxBackoff
	}
	if p.rand != nil {
		if half := int64(delay / 2); half > 0 {
			delay = delay/2 + time.Duration(p.rand.Int63n(half+1))
		}
	}
	return delay
}

// Run polls until ctx is cancelled. The first call happens immediately.
func (p *Poller) Run(ctx context.Context) {
	failures := 0
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := p.Fetch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			log.Printf("poll failed (%d in a row): %v", failures, err)
		} else {
			failures = 0
		}
		timer.Reset(p.Delay(failures))
	}
}
