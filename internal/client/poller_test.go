package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerDelayBackoffBounds(t *testing.T) {
	p := NewPoller(time.Second, nil)
	p.MaxBackoff = 10 * time.Second
	if got := p.Delay(0); got != time.Second {
		t.Fatalf("expected base interval, got %s", got)
	}
	for failures := 1; failures < 8; failures++ {
		full := time.Second << uint(failures)
		if full > p.MaxBackoff {
			full = p.MaxBackoff
		}
		got := p.Delay(failures)
		if got < full/2 || got > full {
			t.Fatalf("failures=%d: %s outside [%s, %s]", failures, got, full/2, full)
		}
	}
}

func TestPollerRunsUntilCancelled(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(time.Millisecond, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) >= 3 {
			cancel()
		}
		return errors.New("unavailable")
	})
	p.MaxBackoff = 5 * time.Millisecond
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop")
	}
	if atomic.LoadInt32(&calls) < 3 {
		t.Fatalf("expected at least 3 calls, got %d", calls)
	}
}
