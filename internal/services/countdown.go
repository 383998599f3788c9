package services

import (
	"sync"
	"time"
)

// ResendCountdown surfaces the OTP resend cooldown to the presentation layer:
// one tick per second counting 30 down to 0, with OnDone fired exactly once
// when zero is reached. Cancel stops the ticks; it is idempotent and must be
// called when the flow resets or leaves the OTP step so a stale timer cannot
// re-enable resend later.
type ResendCountdown struct {
	interval time.Duration
	seconds  int

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewResendCountdown builds a countdown over the standard 30-second cooldown
func NewResendCountdown() *ResendCountdown {
	return newResendCountdown(int(ResendCooldown/time.Second), time.Second)
}

func newResendCountdown(seconds int, interval time.Duration) *ResendCountdown {
	return &ResendCountdown{
		interval: interval,
		seconds:  seconds,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking. onTick receives each remaining value down to and
// including 0; onDone runs after the 0 tick. Both run on the countdown's
// goroutine.
func (c *ResendCountdown) Start(onTick func(remaining int), onDone func()) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		remaining := c.seconds
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				remaining--
				if onTick != nil {
					onTick(remaining)
				}
				if remaining <= 0 {
					if onDone != nil {
						onDone()
					}
					return
				}
			}
		}
	}()
}

// Cancel stops the countdown. Safe to call more than once, and after the
// countdown has already finished.
func (c *ResendCountdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		c.stopped = true
		close(c.stop)
	}
}
