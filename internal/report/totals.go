// Package report folds closed clock entries into period totals: date buckets,
// grouped weekly totals, overtime, hour summaries and payroll rows.
//
// Every function here is pure. Entries are attributed to the bucket in which
// they ended; open entries are skipped.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/period"
)

// Totals splits hours into billable and non-billable parts.
type Totals struct {
	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	Total       decimal.Decimal
}

// Add records hours on the billable or non-billable side.
func (t *Totals) Add(hours decimal.Decimal, billable bool) {
	if billable {
		t.Billable = t.Billable.Add(hours)
	} else {
		t.NonBillable = t.NonBillable.Add(hours)
	}
	t.Total = t.Total.Add(hours)
}

// Plus returns the element-wise sum of t and o.
func (t Totals) Plus(o Totals) Totals {
	return Totals{
		Billable:    t.Billable.Add(o.Billable),
		NonBillable: t.NonBillable.Add(o.NonBillable),
		Total:       t.Total.Add(o.Total),
	}
}

// Minus returns the element-wise difference of t and o.
func (t Totals) Minus(o Totals) Totals {
	return Totals{
		Billable:    t.Billable.Sub(o.Billable),
		NonBillable: t.NonBillable.Sub(o.NonBillable),
		Total:       t.Total.Sub(o.Total),
	}
}

// Equal compares totals numerically.
func (t Totals) Equal(o Totals) bool {
	return t.Billable.Equal(o.Billable) && t.NonBillable.Equal(o.NonBillable) && t.Total.Equal(o.Total)
}

// String formats totals as "total (billable/non-billable)".
func (t Totals) String() string {
	return fmt.Sprintf("%s (%s/%s)", t.Total.StringFixed(2), t.Billable.StringFixed(2), t.NonBillable.StringFixed(2))
}

// GroupBy is the secondary dimension of an aggregate.
type GroupBy string

const (
	GroupByUser     GroupBy = "user"
	GroupByProject  GroupBy = "project"
	GroupByActivity GroupBy = "activity"
)

// ParseGroupBy accepts user, project or activity.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case GroupByUser, GroupByProject, GroupByActivity:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

// Options carries the collaborators shared by every fold.
type Options struct {
	Catalog *domain.Catalog
	// Location the end instants are converted to before truncation. Defaults to UTC.
	Location *time.Location
	// WeekStart is the first day of a week bucket. Zero means Sunday.
	WeekStart time.Weekday
	// Clause restricts which entries are folded. Nil matches every entry.
	Clause Clause
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) catalog() *domain.Catalog {
	if o.Catalog == nil {
		return domain.NewCatalog(nil, nil)
	}
	return o.Catalog
}

// endDay returns the local calendar day on which e ended.
func (o Options) endDay(e *domain.ClockEntry) time.Time {
	return period.Date(e.EndTime.In(o.location()))
}

// include reports whether e is closed and matches the clause.
func (o Options) include(e *domain.ClockEntry) bool {
	if e == nil || e.IsOpen() {
		return false
	}
	return o.Clause == nil || o.Clause.Match(e, o.catalog())
}

// entryHours is the worked time of a closed entry.
func entryHours(e *domain.ClockEntry) decimal.Decimal {
	return e.TotalHours(*e.EndTime)
}

// Group is one secondary-dimension row inside a bucket.
type Group struct {
	Key    int64
	Name   string
	Totals Totals
}

// groupIndex keeps groups in first-encountered order.
type groupIndex struct {
	groups []Group
	index  map[int64]int
}

func (gi *groupIndex) add(key int64, name string, hours decimal.Decimal, billable bool) {
	if gi.index == nil {
		gi.index = make(map[int64]int)
	}
	i, ok := gi.index[key]
	if !ok {
		i = len(gi.groups)
		gi.index[key] = i
		gi.groups = append(gi.groups, Group{Key: key, Name: name})
	}
	gi.groups[i].Totals.Add(hours, billable)
}

func groupKey(e *domain.ClockEntry, by GroupBy, c *domain.Catalog) (int64, string) {
	switch by {
	case GroupByProject:
		return e.ProjectID, c.ProjectName(e.ProjectID)
	case GroupByActivity:
		return e.ActivityID, c.ActivityName(e.ActivityID)
	default:
		return e.UserID, UserName(e.UserID)
	}
}

// UserName is the display label for a user id.
func UserName(id int64) string {
	return fmt.Sprintf("user %d", id)
}
