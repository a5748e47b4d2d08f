package interaction

import (
	"context"
	"sync"
	"time"
)

// Loop serialises events, tasks and timer callbacks onto the goroutine
// running Run. It implements Scheduler so that a Controller's timers fire on
// the same goroutine as its events.
type Loop struct {
	handle   func(Event)
	throttle *Throttler

	items    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop returns a loop delivering events to handle. throttle may be nil.
func NewLoop(handle func(Event), throttle *Throttler, buffer int) *Loop {
	return &Loop{
		handle:   handle,
		throttle: throttle,
		items:    make(chan func(), max(buffer, 0)),
		done:     make(chan struct{}),
	}
}

// Post queues ev. It returns false if the event was throttled or the loop
// has stopped.
func (l *Loop) Post(ev Event) bool {
	if !l.throttle.Allow(ev) {
		return false
	}
	return l.Do(func() { l.handle(ev) })
}

// Do queues f to run on the loop goroutine. It returns false if the loop
// has stopped.
func (l *Loop) Do(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.items <- f:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs f on the loop goroutine after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { l.Do(f) })
}

// Run processes queued work until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.items:
			f()
		}
	}
}
