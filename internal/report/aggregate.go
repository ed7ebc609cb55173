package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/period"
)

// Bucket holds the totals of one truncated date.
type Bucket struct {
	Date   time.Time
	Totals Totals
	Groups []Group
}

// Aggregate folds closed entries into buckets keyed by the end date truncated to
// granularity, split by the secondary dimension. Buckets ascend by date; groups
// keep the order in which they were first seen.
func Aggregate(entries []*domain.ClockEntry, by GroupBy, granularity period.Granularity, opts Options) []Bucket {
	catalog := opts.catalog()
	type acc struct {
		totals Totals
		groups groupIndex
	}
	buckets := make(map[time.Time]*acc)

	for _, e := range entries {
		if !opts.include(e) {
			continue
		}
		key := period.Truncate(opts.endDay(e), granularity, opts.WeekStart)
		b, ok := buckets[key]
		if !ok {
			b = &acc{}
			buckets[key] = b
		}

		hours := entryHours(e)
		billable := catalog.IsBillable(e)
		b.totals.Add(hours, billable)
		id, name := groupKey(e, by, catalog)
		b.groups.add(id, name, hours, billable)
	}

	result := make([]Bucket, 0, len(buckets))
	for date, b := range buckets {
		result = append(result, Bucket{Date: date, Totals: b.totals, Groups: b.groups.groups})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// Sum adds the totals of every bucket.
func Sum(buckets []Bucket) Totals {
	var total Totals
	for _, b := range buckets {
		total = total.Plus(b.Totals)
	}
	return total
}

// Row is one group's totals across a fixed list of date headers.
type Row struct {
	Key   int64
	Name  string
	Cells []Totals
	Total Totals
}

// Overtime treats each cell as a week and sums the hours above threshold.
func (r Row) Overtime(threshold decimal.Decimal) decimal.Decimal {
	weeks := make([]decimal.Decimal, len(r.Cells))
	for i, c := range r.Cells {
		weeks[i] = c.Total
	}
	return FindOvertime(weeks, threshold)
}

// Grid lays buckets out as rows per group and columns per date header, the shape
// of the hourly report. headers usually come from period.DateHeaders.
type Grid struct {
	Headers []time.Time
	Rows    []Row
	Totals  []Totals
	Total   Totals
}

// BuildGrid pivots Aggregate output onto headers. Buckets outside the headers are dropped.
func BuildGrid(buckets []Bucket, headers []time.Time) Grid {
	column := make(map[time.Time]int, len(headers))
	for i, h := range headers {
		column[h] = i
	}

	grid := Grid{Headers: headers, Totals: make([]Totals, len(headers))}
	rows := make(map[int64]int)
	for _, b := range buckets {
		col, ok := column[b.Date]
		if !ok {
			continue
		}
		for _, g := range b.Groups {
			r, ok := rows[g.Key]
			if !ok {
				r = len(grid.Rows)
				rows[g.Key] = r
				grid.Rows = append(grid.Rows, Row{Key: g.Key, Name: g.Name, Cells: make([]Totals, len(headers))})
			}
			grid.Rows[r].Cells[col] = grid.Rows[r].Cells[col].Plus(g.Totals)
			grid.Rows[r].Total = grid.Rows[r].Total.Plus(g.Totals)
			grid.Totals[col] = grid.Totals[col].Plus(g.Totals)
			grid.Total = grid.Total.Plus(g.Totals)
		}
	}
	return grid
}
