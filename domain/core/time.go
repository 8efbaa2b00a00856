package core

import (
	"time"
)

// HoursPerDay converts between day-denominated block sizes and durations.
const HoursPerDay = 24

// DaysToDuration converts a day count (possibly fractional) to a duration.
func DaysToDuration(days float64) time.Duration {
	return time.Duration(days * HoursPerDay * float64(time.Hour))
}

// DurationToDays converts a duration to fractional days.
func DurationToDays(d time.Duration) float64 {
	return d.Hours() / HoursPerDay
}

// DaysBetween returns the fractional number of days from a to b.
func DaysBetween(a, b time.Time) float64 {
	return DurationToDays(b.Sub(a))
}
