// Package clock abstracts wall time so schedules and timestamps can be driven
// deterministically in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// Real returns a Clock backed by the time package. Now is always UTC with
// microsecond precision.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
