package flow

import (
	"sync"
	"time"
)

// StepUpWindowSeconds is how long a step-up challenge stays open.
const StepUpWindowSeconds = 300

// SessionClock is a single-subscriber countdown with per-second ticks. It
// emits one decrement event per elapsed interval and exactly one expiry event
// at zero, then stops permanently. Stop is synchronous: once it returns, no
// further callbacks fire.
type SessionClock struct {
	interval time.Duration

	mu        sync.Mutex
	remaining int

	onTick   func(remaining int)
	onExpire func()

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSessionClock creates a countdown of the given number of ticks. The
// interval is how much wall time one tick represents; zero means one second.
// Tests compress time by passing a short interval.
func NewSessionClock(seconds int, interval time.Duration, onTick func(remaining int), onExpire func()) *SessionClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &SessionClock{
		interval:  interval,
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins ticking. It must be called at most once.
func (c *SessionClock) Start() {
	go c.run()
}

func (c *SessionClock) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.remaining--
			remaining := c.remaining
			c.mu.Unlock()

			if remaining > 0 {
				if c.onTick != nil {
					c.onTick(remaining)
				}
				continue
			}

			if c.onExpire != nil {
				c.onExpire()
			}
			return
		}
	}
}

// Remaining returns the ticks left on the clock.
func (c *SessionClock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop cancels the countdown. It is idempotent and blocks until the ticking
// goroutine has exited, so callers can rely on no tick or expiry arriving
// after Stop returns. Calling Stop after expiry is a no-op.
func (c *SessionClock) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.doneCh
}
