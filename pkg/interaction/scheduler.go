package interaction

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running if it has not started.
	Stop() bool
}

// Scheduler runs a callback once after a delay. Implementations must run
// the callback on the goroutine that owns the Controller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
