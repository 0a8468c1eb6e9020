package attempt

import (
	"context"
	"sync"
	"time"
)

// Countdown counts whole seconds down to zero and calls onExpire at most once.
// Ticks come either from Start (a real ticker) or from explicit Tick calls.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	expired   bool
	stopped   bool
	onExpire  func()
	cancel    context.CancelFunc
}

func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds, onExpire: onExpire}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Tick advances the countdown by one second. The expiry callback runs on the
// calling goroutine, after the internal lock is released.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	if c.stopped || c.expired {
		r := c.remaining
		c.mu.Unlock()
		return r
	}
	if c.remaining > 0 {
		c.remaining--
	}
	fire := c.remaining == 0
	if fire {
		c.expired = true
		c.stopped = true
		if c.cancel != nil {
			c.cancel()
		}
	}
	r, cb := c.remaining, c.onExpire
	c.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
	return r
}

// Start drives Tick from a time.Ticker until expiry, Stop or ctx cancellation.
func (c *Countdown) Start(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	if c.stopped || c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

// Stop halts the countdown without firing the expiry callback.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
}
