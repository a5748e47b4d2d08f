package interaction

import (
	"sync"
	"time"
)

// Throttler drops pointer-move and wheel events arriving faster than a
// minimum interval. Other events always pass, so presses and releases are
// never lost.
type Throttler struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[EventType]time.Time
}

// NewThrottler returns a throttler with the given minimum interval. A
// non-positive interval lets everything through.
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		interval: interval,
		now:      time.Now,
		last:     make(map[EventType]time.Time),
	}
}

// Allow reports whether ev should be delivered. A nil Throttler allows
// every event.
func (t *Throttler) Allow(ev Event) bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	if ev.Type != EventPointerMove && ev.Type != EventWheel {
		return true
	}
	at := ev.Time
	if at.IsZero() {
		at = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.last[ev.Type]; ok && at.Sub(last) < t.interval {
		return false
	}
	t.last[ev.Type] = at
	return true
}
