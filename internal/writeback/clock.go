package writeback

import "time"

// Clock schedules the quiet-period timers. AfterFunc returns the timer's stop
// function.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

func RealClock() Clock {
	return realClock{}
}
