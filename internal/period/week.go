package period

import (
	"fmt"
	"strings"
	"time"
)

// WeekStart returns the first day of the week containing date, for weeks beginning on start.
func WeekStart(date time.Time, start time.Weekday) time.Time {
	date = Date(date)
	offset := (int(date.Weekday()) - int(start) + 7) % 7
	return date.AddDate(0, 0, -offset)
}

// WeekEnd returns the last day (inclusive) of the week containing date.
func WeekEnd(date time.Time, start time.Weekday) time.Time {
	return WeekStart(date, start).AddDate(0, 0, 6)
}

// Week returns the week containing date as a Period.
func Week(date time.Time, start time.Weekday) Period {
	s := WeekStart(date, start)
	return Period{Start: s, End: s.AddDate(0, 0, 6)}
}

// ISOWeekStart returns the Monday on or before date.
func ISOWeekStart(date time.Time) time.Time {
	return WeekStart(date, time.Monday)
}

// TruncateToDisplayWeek returns the Sunday on or before date.
func TruncateToDisplayWeek(date time.Time) time.Time {
	return WeekStart(date, time.Sunday)
}

// LegacyWeekOfYear numbers weeks from the first start weekday on or before January 1.
// It does not agree with ISO week numbers; it only labels legacy weekly totals.
func LegacyWeekOfYear(date time.Time, start time.Weekday) int {
	week0 := WeekStart(time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location()), start)
	return DaysBetween(week0, date) / 7
}

// LegacyWeekStart returns the first day of legacy week n of year.
func LegacyWeekStart(year, n int, start time.Weekday, loc *time.Location) time.Time {
	week0 := WeekStart(time.Date(year, time.January, 1, 0, 0, 0, 0, loc), start)
	return week0.AddDate(0, 0, 7*n)
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// Granularity is the size of a date bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity accepts day, week, month and year.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Truncate returns the bucket key of t at granularity g. Weeks begin on weekStart.
func Truncate(t time.Time, g Granularity, weekStart time.Weekday) time.Time {
	d := Date(t)
	switch g {
	case GranularityWeek:
		return WeekStart(d, weekStart)
	case GranularityMonth:
		return StartOfMonth(d)
	case GranularityYear:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
	default:
		return d
	}
}

// DateHeaders returns every bucket key at granularity g from the bucket containing
// from up to and including the bucket containing to.
func DateHeaders(from, to time.Time, g Granularity, weekStart time.Weekday) []time.Time {
	var headers []time.Time
	last := Truncate(to, g, weekStart)
	for cur := Truncate(from, g, weekStart); !cur.After(last); cur = step(cur, g) {
		headers = append(headers, cur)
	}
	return headers
}

func step(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	case GranularityYear:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
