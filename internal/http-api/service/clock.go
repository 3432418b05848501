package service

import "time"

// Clock is the single source of "now" for all timestamp math, swapped for a
// fixed clock in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }
