// Package clock provides an injectable time source so the simulation can be
// driven by wall time in production and by a manually advanced clock in tests.
package clock

import "time"

// Clock abstracts the time operations used by the controller.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real) or
	// synchronously during Advance (fake).
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was
	// still pending.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scaled returns a Clock whose delays are divided by speed. A speed of 2
// makes every delay half as long. Speeds <= 0 are treated as 1.
func Scaled(c Clock, speed float64) Clock {
	if speed <= 0 || speed == 1 {
		return c
	}
	return scaledClock{base: c, speed: speed}
}

type scaledClock struct {
	base  Clock
	speed float64
}

func (s scaledClock) Now() time.Time { return s.base.Now() }

func (s scaledClock) AfterFunc(d time.Duration, f func()) Timer {
	return s.base.AfterFunc(time.Duration(float64(d)/s.speed), f)
}
