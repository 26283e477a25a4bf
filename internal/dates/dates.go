// Package dates is the single home for time-zone-sensitive calendar
// arithmetic. Day keys, local midnights and month grids are computed here and
// nowhere else, so every component agrees on what "the same day" means.
package dates

import (
	"fmt"
	"time"
)

// DayKeyLayout is the canonical local-calendar-day identifier.
const DayKeyLayout = "2006-01-02"

// Day is one nominal day.
const Day = 24 * time.Hour

// LoadLocation resolves an IANA zone name, falling back to UTC for an empty
// name. An unknown zone is a validation failure surfaced to the caller.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("dates: unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

// DayKey returns the zone-local calendar day of t as "YYYY-MM-DD".
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// SameDay reports whether two instants fall on the same zone-local day.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc) == DayKey(b, loc)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// NextStartOfDay returns the first instant of the local day after t. This is
// when the quick-revision lock releases.
func NextStartOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1)
}

// DaysBetween counts whole local calendar days from start to end; the result
// is negative when end precedes start.
func DaysBetween(start, end time.Time, loc *time.Location) int {
	s := StartOfDay(start, loc)
	e := StartOfDay(end, loc)
	// Round instead of truncate: a DST transition makes some local days
	// 23 or 25 hours long.
	return int(roundDiv(e.Sub(s), Day))
}

func roundDiv(d, unit time.Duration) int64 {
	if d < 0 {
		return -roundDiv(-d, unit)
	}
	return int64((d + unit/2) / unit)
}

// StartOfMonth returns local midnight on the first day of t's month.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
}

// AddMonths moves to local midnight on the first day of the month a given
// number of months away. The first-of-month normalization avoids the
// day-overflow surprises of AddDate on month arithmetic.
func AddMonths(t time.Time, months int, loc *time.Location) time.Time {
	start := StartOfMonth(t, loc)
	return start.AddDate(0, months, 0)
}

// MonthGridStart returns local midnight of the first grid cell for a month
// view: the month start rolled back to the previous weekStartsOn weekday
// (0 = Sunday, 1 = Monday).
func MonthGridStart(monthDate time.Time, weekStartsOn int, loc *time.Location) time.Time {
	start := StartOfMonth(monthDate, loc)
	offset := (int(start.Weekday()) - weekStartsOn + 7) % 7
	return start.AddDate(0, 0, -offset)
}

// ParseInstant parses an ISO-8601 instant, accepting the RFC 3339 forms the
// storage layer and spreadsheets produce.
func ParseInstant(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DayKeyLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dates: malformed instant %q", value)
}

// CombineDateAndTime builds an instant from separate "YYYY-MM-DD" and "HH:MM"
// inputs interpreted in loc. An empty time defaults to noon so backfilled
// reviews sit away from both midnights.
func CombineDateAndTime(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "12:00"
	}
	t, err := time.ParseInLocation(DayKeyLayout+" 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: malformed date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}
