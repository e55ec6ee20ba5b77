package model

import (
	"fmt"
	"time"
)

type Shop struct {
	ID           string
	Name         string
	Address      string
	Phone        string
	Timezone     string
	WorkingHours []WorkingDay
	CreatedAt    time.Time
}

// WorkingDay is one weekday's opening window. Day follows time.Weekday
// (0 = Sunday).
type WorkingDay struct {
	Day    int    `json:"day"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen bool   `json:"isOpen"`
}

// DefaultWorkingHours is Monday to Friday 09:00-17:00, closed at the weekend.
func DefaultWorkingHours() []WorkingDay {
	days := make([]WorkingDay, 0, 7)
	for wd := 0; wd <= 6; wd++ {
		isOpen := wd >= 1 && wd <= 5
		days = append(days, WorkingDay{Day: wd, Open: "09:00", Close: "17:00", IsOpen: isOpen})
	}
	return days
}

// HoursFor returns the entry for weekday. A missing entry counts as closed.
func (s Shop) HoursFor(weekday time.Weekday) WorkingDay {
	for _, d := range s.WorkingHours {
		if d.Day == int(weekday) {
			return d
		}
	}
	return WorkingDay{Day: int(weekday)}
}

// Location falls back to UTC for an empty or unknown zone name.
func (s Shop) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidateWorkingHours checks a full seven-day schedule.
func ValidateWorkingHours(days []WorkingDay) error {
	if len(days) != 7 {
		return fmt.Errorf("working hours must list 7 days, got %d", len(days))
	}
	seen := make(map[int]bool, 7)
	for _, d := range days {
		if d.Day < 0 || d.Day > 6 {
			return fmt.Errorf("day %d out of range 0-6", d.Day)
		}
		if seen[d.Day] {
			return fmt.Errorf("day %d listed twice", d.Day)
		}
		seen[d.Day] = true
		if !d.IsOpen {
			continue
		}
		open, err := ParseClock(d.Open)
		if err != nil {
			return fmt.Errorf("day %d: %w", d.Day, err)
		}
		closing, err := ParseClock(d.Close)
		if err != nil {
			return fmt.Errorf("day %d: %w", d.Day, err)
		}
		if closing <= open {
			return fmt.Errorf("day %d: close %s must be after open %s", d.Day, d.Close, d.Open)
		}
	}
	return nil
}
