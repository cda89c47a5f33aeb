package engine

import "time"

// Clock abstracts time.Now so tests can pin the clock
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
