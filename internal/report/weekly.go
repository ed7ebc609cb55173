package report

import (
	"sort"
	"time"

	"timesheet/internal/domain"
	"timesheet/internal/period"
)

// DayTotals are the totals of one calendar day split by project.
type DayTotals struct {
	Date     time.Time
	Totals   Totals
	Projects []Group
}

// WeekTotals is one display week. Raw holds the Monday-week totals the bucket
// started from; Adjusted moves the boundary days so the totals cover exactly
// the display week.
type WeekTotals struct {
	Start    time.Time
	End      time.Time
	Label    int
	Raw      Totals
	Adjusted Totals
	Days     []DayTotals
}

// Correction is the delta applied to the raw totals.
func (w WeekTotals) Correction() Totals {
	return w.Adjusted.Minus(w.Raw)
}

// BoundaryShift is the number of days from a display week starting on
// displayStart to the Monday inside it. A Sunday start gives 1.
func BoundaryShift(displayStart time.Weekday) int {
	return (int(time.Monday) - int(displayStart) + 7) % 7
}

// WeeklyTotals groups closed entries by the display week of their end day.
//
// Each week is first summed as the Monday week M..M+6 overlapping it, then
// corrected with k = BoundaryShift(displayStart):
//
//	adjusted = raw + sum(days M-k .. M-1) - sum(days M+7-k .. M+6)
//
// The correction needs entries up to a week either side of the weeks wanted;
// use WeeksBetween to drop the padding weeks afterwards.
func WeeklyTotals(entries []*domain.ClockEntry, displayStart time.Weekday, opts Options) []WeekTotals {
	catalog := opts.catalog()
	days := make(map[time.Time]*struct {
		totals   Totals
		projects groupIndex
	})

	for _, e := range entries {
		if !opts.include(e) {
			continue
		}
		day := opts.endDay(e)
		d, ok := days[day]
		if !ok {
			d = &struct {
				totals   Totals
				projects groupIndex
			}{}
			days[day] = d
		}
		hours := entryHours(e)
		billable := catalog.IsBillable(e)
		d.totals.Add(hours, billable)
		d.projects.add(e.ProjectID, catalog.ProjectName(e.ProjectID), hours, billable)
	}

	sumDays := func(from, to time.Time) Totals {
		var t Totals
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if d, ok := days[day]; ok {
				t = t.Plus(d.totals)
			}
		}
		return t
	}

	weekDays := make(map[time.Time][]DayTotals)
	for day, d := range days {
		start := period.WeekStart(day, displayStart)
		weekDays[start] = append(weekDays[start], DayTotals{Date: day, Totals: d.totals, Projects: d.projects.groups})
	}

	k := BoundaryShift(displayStart)
	weeks := make([]WeekTotals, 0, len(weekDays))
	for start, dayList := range weekDays {
		sort.Slice(dayList, func(i, j int) bool { return dayList[i].Date.Before(dayList[j].Date) })

		monday := start.AddDate(0, 0, k)
		raw := sumDays(monday, monday.AddDate(0, 0, 6))
		adjusted := raw
		if k > 0 {
			adjusted = raw.
				Plus(sumDays(monday.AddDate(0, 0, -k), monday.AddDate(0, 0, -1))).
				Minus(sumDays(monday.AddDate(0, 0, 7-k), monday.AddDate(0, 0, 6)))
		}

		weeks = append(weeks, WeekTotals{
			Start:    start,
			End:      start.AddDate(0, 0, 6),
			Label:    period.LegacyWeekOfYear(start, displayStart),
			Raw:      raw,
			Adjusted: adjusted,
			Days:     dayList,
		})
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Start.Before(weeks[j].Start) })
	return weeks
}

// WeeksBetween keeps the weeks whose start falls within [from, to], by date.
func WeeksBetween(weeks []WeekTotals, from, to time.Time) []WeekTotals {
	from, to = period.Date(from), period.Date(to)
	var kept []WeekTotals
	for _, w := range weeks {
		if !w.Start.Before(from) && !w.Start.After(to) {
			kept = append(kept, w)
		}
	}
	return kept
}
