package app

import "time"

// Clock is the trusted time source of the executor. It is read once per
// transaction.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current wall time in UTC, truncated to seconds.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
