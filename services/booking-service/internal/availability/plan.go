package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// SameDayBuffer is how far ahead of now the first same-day slot must start.
const SameDayBuffer = 30 * time.Minute

// PlanDay cuts the working window into back-to-back intervals of width step.
// The grid starts at the later of opensAt and notBefore, and the last interval
// ends at or before closesAt.
func PlanDay(opensAt, closesAt time.Time, step time.Duration, notBefore time.Time) []Interval {
	start := opensAt
	if notBefore.After(start) {
		start = notBefore
	}
	if step <= 0 || !closesAt.After(start) {
		return nil
	}
	var out []Interval
	for t := start; !t.Add(step).After(closesAt); t = t.Add(step) {
		out = append(out, Interval{Start: t, End: t.Add(step)})
	}
	return out
}

// SameDayStart is the earliest start for slots generated on the current
// day: now plus the buffer, rounded up to the next whole hour.
func SameDayStart(now time.Time) time.Time {
	t := now.Add(SameDayBuffer)
	floor := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Hour)
}
