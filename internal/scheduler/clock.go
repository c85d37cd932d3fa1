package scheduler

import "time"

// Clock abstracts wall-clock sampling so sweeps can be driven with a
// fixed "now" in tests. All firing rules compare against the clock's
// location; the default deployment pins it to Asia/Bangkok (UTC+7).
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// fixedClock is the test clock.
type fixedClock struct {
	now time.Time
}

func NewFixedClock(now time.Time) Clock {
	return fixedClock{now: now}
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
