package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/period"
	"timesheet/internal/report"
)

// table aligns rows on tab stops
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer) *table {
	return &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
}

func (t *table) row(cells ...interface{}) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func hours(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func totalsCells(t report.Totals) []interface{} {
	return []interface{}{hours(t.Total), hours(t.Billable), hours(t.NonBillable)}
}

// secondsText renders a second count as h:mm:ss
func secondsText(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// headerText labels a grid column by its granularity
func headerText(t time.Time, g period.Granularity) string {
	switch g {
	case period.GranularityYear:
		return t.Format("2006")
	case period.GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format(period.DateLayout)
	}
}
