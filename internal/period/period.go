// Package period computes accounting periods and week windows.
//
// All functions work on calendar dates: the time-of-day and nanoseconds of
// their inputs are ignored, and results are midnight in the input's location.
package period

import (
	"fmt"
	"time"
)

// Kind selects how periods are laid out on the calendar.
type Kind string

const (
	// KindCalendarMonth periods run from StartDay of one month to the day before StartDay of the next.
	KindCalendarMonth Kind = "monthly"
	// KindFixedLength periods are LengthDays long, aligned to AnchorDate.
	KindFixedLength Kind = "fixed"
	// KindSemiMonthly periods run 1st to 15th and 16th to end of month.
	KindSemiMonthly Kind = "semi-monthly"
)

// Policy describes the active period layout. Only the fields of its Kind are used.
type Policy struct {
	Kind       Kind
	StartDay   int
	AnchorDate time.Time
	LengthDays int
}

// MonthlyPolicy returns a calendar-month policy starting on startDay.
func MonthlyPolicy(startDay int) *Policy {
	return &Policy{Kind: KindCalendarMonth, StartDay: startDay}
}

// FixedPolicy returns a fixed-length policy anchored at anchor.
func FixedPolicy(anchor time.Time, lengthDays int) *Policy {
	return &Policy{Kind: KindFixedLength, AnchorDate: anchor, LengthDays: lengthDays}
}

// SemiMonthlyPolicy returns the 1-15 / 16-end policy.
func SemiMonthlyPolicy() *Policy {
	return &Policy{Kind: KindSemiMonthly}
}

// Validate returns a description of what is wrong with the policy, or "" if it is usable.
func (p *Policy) Validate() string {
	switch p.Kind {
	case KindCalendarMonth:
		if p.StartDay < 1 || p.StartDay > 31 {
			return fmt.Sprintf("month start day must be between 1 and 31, got %d", p.StartDay)
		}
	case KindFixedLength:
		if p.AnchorDate.IsZero() {
			return "fixed-length periods need an anchor date"
		}
		if p.LengthDays < 1 {
			return fmt.Sprintf("period length must be at least one day, got %d", p.LengthDays)
		}
	case KindSemiMonthly:
	default:
		return fmt.Sprintf("unknown period kind %q", p.Kind)
	}
	return ""
}

// Period is an inclusive range of dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the date of t falls within the period.
func (p Period) Contains(t time.Time) bool {
	d := Date(t.In(p.Start.Location()))
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Range returns the half-open instant range [Start 00:00, End+1 00:00) for queries.
func (p Period) Range() (time.Time, time.Time) {
	return p.Start, p.End.AddDate(0, 0, 1)
}

// Bounds returns the start at 00:00:00 and the end at 23:59:59.
func (p Period) Bounds() (time.Time, time.Time) {
	return p.Start, p.End.Add(24*time.Hour - time.Second)
}

// String formats the period as "2006-01-02..2006-01-02".
func (p Period) String() string {
	return p.Start.Format(DateLayout) + ".." + p.End.Format(DateLayout)
}

// DateLayout is the layout used to print and parse dates.
const DateLayout = "2006-01-02"

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
