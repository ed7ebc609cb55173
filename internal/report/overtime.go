package report

import (
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/period"
)

// DefaultOvertimeThreshold is the weekly hours above which time counts as overtime.
var DefaultOvertimeThreshold = decimal.NewFromInt(40)

// FindOvertime sums the hours above threshold over a list of weekly totals.
func FindOvertime(weeks []decimal.Decimal, threshold decimal.Decimal) decimal.Decimal {
	overtime := decimal.Zero
	for _, w := range weeks {
		if w.GreaterThan(threshold) {
			overtime = overtime.Add(w.Sub(threshold))
		}
	}
	return overtime
}

// WeekHours is one user's worked hours in one calendar week.
type WeekHours struct {
	Start    time.Time
	End      time.Time
	Hours    decimal.Decimal
	Overtime decimal.Decimal
	// Counted is false for weeks whose end falls outside the pay period.
	Counted bool
}

// OvertimeCalculator computes weekly overtime restricted to a pay period.
type OvertimeCalculator struct {
	threshold decimal.Decimal
	opts      Options
}

// NewOvertimeCalculator creates a calculator. A non-positive threshold falls back to 40 hours.
func NewOvertimeCalculator(threshold decimal.Decimal, opts Options) *OvertimeCalculator {
	if !threshold.IsPositive() {
		threshold = DefaultOvertimeThreshold
	}
	opts.Clause = nil
	return &OvertimeCalculator{threshold: threshold, opts: opts}
}

// Threshold returns the weekly threshold in hours.
func (c *OvertimeCalculator) Threshold() decimal.Decimal {
	return c.threshold
}

// Weeks returns the user's weekly hours for every week ending in [payStart-6, payEnd),
// excluding leave projects. Entries may belong to several users; others are ignored.
func (c *OvertimeCalculator) Weeks(userID int64, payStart, payEnd time.Time, entries []*domain.ClockEntry) []WeekHours {
	catalog := c.opts.catalog()
	payStart, payEnd = period.Date(payStart), period.Date(payEnd)

	hours := make(map[time.Time]decimal.Decimal)
	for _, e := range entries {
		if e.UserID != userID || !c.opts.include(e) || catalog.LeaveKind(e) != domain.LeaveNone {
			continue
		}
		start := period.WeekStart(c.opts.endDay(e), c.opts.WeekStart)
		hours[start] = hours[start].Add(entryHours(e))
	}

	var weeks []WeekHours
	first := period.WeekStart(payStart.AddDate(0, 0, -6), c.opts.WeekStart)
	for start := first; start.Before(payEnd); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 6)
		w := WeekHours{
			Start:   start,
			End:     end,
			Hours:   hours[start],
			Counted: !end.Before(payStart) && end.Before(payEnd),
		}
		if w.Counted && w.Hours.GreaterThan(c.threshold) {
			w.Overtime = w.Hours.Sub(c.threshold)
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// OvertimeHours sums hours above the threshold for every week whose end date
// falls in [payStart, payEnd). Weeks that straddle payStart or payEnd are not pro-rated.
func (c *OvertimeCalculator) OvertimeHours(userID int64, payStart, payEnd time.Time, entries []*domain.ClockEntry) decimal.Decimal {
	var counted []decimal.Decimal
	for _, w := range c.Weeks(userID, payStart, payEnd, entries) {
		if w.Counted {
			counted = append(counted, w.Hours)
		}
	}
	return FindOvertime(counted, c.threshold)
}

// QueryRange is the end-instant range of entries OvertimeHours needs for a pay period.
func (c *OvertimeCalculator) QueryRange(payStart, payEnd time.Time) (time.Time, time.Time) {
	return period.WeekStart(period.Date(payStart).AddDate(0, 0, -6), c.opts.WeekStart), period.Date(payEnd)
}
