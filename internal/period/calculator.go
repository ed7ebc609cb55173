package period

import (
	"time"

	"timesheet/internal/errors"
)

// Calculator computes the periods of a Policy.
type Calculator struct {
	policy *Policy
}

// NewCalculator creates a calculator for the policy. A nil policy is allowed;
// every computation then fails with an unconfigured-period error.
func NewCalculator(policy *Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the policy the calculator was built with.
func (c *Calculator) Policy() *Policy {
	return c.policy
}

// CurrentPeriod returns the period containing date.
func (c *Calculator) CurrentPeriod(date time.Time) (Period, error) {
	return c.PeriodOffsetBy(date, 0)
}

// PeriodOffsetBy returns the period delta periods before the one containing date.
func (c *Calculator) PeriodOffsetBy(date time.Time, delta int) (Period, error) {
	if c.policy == nil {
		return Period{}, errors.NewUnconfiguredPeriodError("no period policy configured")
	}
	if reason := c.policy.Validate(); reason != "" {
		return Period{}, errors.NewUnconfiguredPeriodError(reason)
	}
	if delta < 0 {
		return Period{}, errors.NewUnsupportedDirectionError(delta)
	}

	date = Date(date)
	switch c.policy.Kind {
	case KindCalendarMonth:
		return monthlyPeriod(date, c.policy.StartDay, delta), nil
	case KindFixedLength:
		return fixedPeriod(date, c.policy.AnchorDate, c.policy.LengthDays, delta), nil
	default:
		return semiMonthlyPeriod(date, delta), nil
	}
}

// Previous returns the period immediately before p.
func (c *Calculator) Previous(p Period) (Period, error) {
	return c.PeriodOffsetBy(p.Start, 1)
}

// monthIndex numbers months continuously so stepping never yields month 0 or 13.
func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

func fromMonthIndex(idx int) (int, time.Month) {
	return idx / 12, time.Month(idx%12 + 1)
}

// monthlyStart is the first day of the period that begins in the month idx.
// When startDay exceeds the month, the boundary clamps to the month's end and
// the period begins the day after.
func monthlyStart(idx, startDay int, loc *time.Location) time.Time {
	y, m := fromMonthIndex(idx)
	boundary := min(startDay-1, DaysIn(y, m))
	return time.Date(y, m, boundary, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
}

// monthlyEnd is the last day of the period that begins in the month idx.
func monthlyEnd(idx, startDay int, loc *time.Location) time.Time {
	y, m := fromMonthIndex(idx + 1)
	last := min(startDay-1, DaysIn(y, m))
	return time.Date(y, m, last, 0, 0, 0, 0, loc)
}

func monthlyPeriod(date time.Time, startDay, delta int) Period {
	loc := date.Location()
	idx := monthIndex(date.Year(), date.Month())
	if date.Day() < startDay {
		idx--
	}

	// clamped boundaries can leave date just outside the first guess
	if date.Before(monthlyStart(idx, startDay, loc)) {
		idx--
	} else if date.After(monthlyEnd(idx, startDay, loc)) {
		idx++
	}

	idx -= delta
	return Period{
		Start: monthlyStart(idx, startDay, loc),
		End:   monthlyEnd(idx, startDay, loc),
	}
}

func fixedPeriod(date, anchor time.Time, length, delta int) Period {
	daysInto := DaysBetween(anchor, date) % length
	if daysInto < 0 {
		daysInto += length
	}
	start := date.AddDate(0, 0, -daysInto-delta*length)
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, length-1),
	}
}

func semiMonthlyPeriod(date time.Time, delta int) Period {
	loc := date.Location()
	// half index: two per month, even halves start on the 1st
	half := monthIndex(date.Year(), date.Month()) * 2
	if date.Day() > 15 {
		half++
	}
	half -= delta

	y, m := fromMonthIndex(half / 2)
	if half%2 == 0 {
		return Period{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, 15, 0, 0, 0, 0, loc),
		}
	}
	return Period{
		Start: time.Date(y, m, 16, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, DaysIn(y, m), 0, 0, 0, 0, loc),
	}
}
