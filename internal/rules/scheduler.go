package rules

import "time"

// Scheduler defers a function by a delay. The default implementation is
// an in-process timer; a durable job queue can be substituted without
// touching the engine.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// TimerScheduler runs deferred functions on time.AfterFunc timers.
// Pending work is lost on process exit.
type TimerScheduler struct{}

// NewTimerScheduler creates the default in-process scheduler.
func NewTimerScheduler() *TimerScheduler { return &TimerScheduler{} }

func (*TimerScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}
