package model

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type TimeOfDay string

const (
	Morning   TimeOfDay = "MORNING"
	Afternoon TimeOfDay = "AFTERNOON"
	Evening   TimeOfDay = "EVENING"
)

// TimeSlot is one fixed-width bookable interval. IsAvailable is its only
// mutable field.
type TimeSlot struct {
	ID          string
	ShopID      string
	Date        time.Time
	StartTime   string
	EndTime     string
	IsAvailable bool
	TimeOfDay   TimeOfDay
	CreatedAt   time.Time
}

// StartsAt resolves the slot's start in loc.
func (s TimeSlot) StartsAt(loc *time.Location) (time.Time, error) {
	clock, err := ParseClock(s.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), clock/60, clock%60, 0, 0, loc), nil
}

// ParseDate parses YYYY-MM-DD into midnight UTC, the representation used for
// every stored calendar date.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

// CivilDate drops the clock and zone of t, keeping its calendar date in t's location.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseClock turns HH:mm into minutes after midnight.
func ParseClock(raw string) (int, error) {
	t, err := time.Parse(ClockLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
