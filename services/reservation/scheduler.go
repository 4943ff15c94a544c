package reservation

import "time"

// Clock abstracts time.Now so tests can fast-forward deterministically.
type Clock interface {
	Now() time.Time
}

// Scheduler abstracts deferred callbacks. After returns a cancel function;
// cancelling after the callback has fired is a no-op.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type systemScheduler struct{}

func (systemScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// SystemScheduler schedules callbacks on the Go runtime timer heap.
func SystemScheduler() Scheduler { return systemScheduler{} }
