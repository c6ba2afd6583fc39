package signal

import (
	"sync"
	"time"
)

// Cooldown is a per-channel countdown. Arming it sets a deadline; the
// remaining whole seconds count down as time passes and the cooldown disarms
// itself once the deadline is reached. The timer carries no knowledge of why
// it was armed; callers decide whether re-arming is allowed.
type Cooldown struct {
	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

// NewCooldown creates a disarmed Cooldown.
func NewCooldown() *Cooldown {
	return &Cooldown{now: time.Now}
}

// Start arms the cooldown for the given number of seconds.
func (c *Cooldown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until = c.now().Add(time.Duration(seconds) * time.Second)
}

// Active reports whether the cooldown is currently armed.
func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Remaining returns the whole seconds left until the cooldown disarms,
// rounded up so a just-armed 60s cooldown reports 60 and an expired one
// reports 0.
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	left := c.until.Sub(c.now())
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second > 0 {
		secs++
	}
	return secs
}
