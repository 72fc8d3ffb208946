package usecase

import "time"

// DelayDate adds delay days to date and pushes the result forward one day
// at a time while it falls on a Saturday or Sunday. The result never lands
// on a weekend.
func DelayDate(date time.Time, delay int) time.Time {
	next := date.AddDate(0, 0, delay)
	if wd := next.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return DelayDate(next, 1)
	}
	return next
}

// dayStart truncates a time to midnight UTC
func dayStart(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
