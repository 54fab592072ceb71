package store

import "time"

// Timer is a pending callback scheduled by a Clock.
type Timer interface {
	Stop() bool
}

// Clock supplies time and timers to the persister.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
