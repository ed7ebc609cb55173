package report

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"timesheet/internal/domain"
	"timesheet/internal/period"
)

// PayrollRow is one user's hours for a pay period.
type PayrollRow struct {
	UserID      int64
	Name        string
	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	PaidLeave   []LeaveHours
	UnpaidLeave decimal.Decimal
	// WorkTotal is billable plus non-billable work.
	WorkTotal decimal.Decimal
	// LeaveTotal is paid leave only; unpaid leave is reported but not paid.
	LeaveTotal decimal.Decimal
	GrandTotal decimal.Decimal
	Overtime   decimal.Decimal
}

// PayrollReport holds a row per user plus a totals row.
type PayrollReport struct {
	Start  time.Time
	End    time.Time
	Rows   []PayrollRow
	Totals PayrollRow
}

// Payroll computes a row for every user over the pay period [payStart, payEnd).
// entries must cover the period plus the six days before payStart so overtime
// can see whole weeks; use OvertimeCalculator.QueryRange to fetch them.
// Rows are computed concurrently and returned in users order.
func Payroll(ctx context.Context, users []int64, entries []*domain.ClockEntry, payStart, payEnd time.Time, overtime *OvertimeCalculator, opts Options) (*PayrollReport, error) {
	byUser := make(map[int64][]*domain.ClockEntry)
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	rows := make([]PayrollRow, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, userID := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = payrollRow(userID, byUser[userID], payStart, payEnd, overtime, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &PayrollReport{Start: payStart, End: payEnd, Rows: rows, Totals: PayrollRow{Name: "Totals"}}
	for _, row := range rows {
		report.Totals = addRows(report.Totals, row)
	}
	return report, nil
}

func payrollRow(userID int64, entries []*domain.ClockEntry, payStart, payEnd time.Time, overtime *OvertimeCalculator, opts Options) PayrollRow {
	catalog := opts.catalog()
	from, to := period.Date(payStart), period.Date(payEnd)

	inPeriod := make([]*domain.ClockEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsClosed() {
			day := opts.endDay(e)
			if !day.Before(from) && day.Before(to) {
				inPeriod = append(inPeriod, e)
			}
		}
	}

	row := PayrollRow{UserID: userID, Name: UserName(userID)}
	summary := Summarize(inPeriod, opts)
	row.PaidLeave = summary.PaidLeave
	row.LeaveTotal = summary.PaidLeaveTotal()

	for _, e := range inPeriod {
		if !opts.include(e) {
			continue
		}
		hours := entryHours(e)
		switch {
		case catalog.LeaveKind(e) == domain.LeaveUnpaid:
			row.UnpaidLeave = row.UnpaidLeave.Add(hours)
		case catalog.LeaveKind(e) == domain.LeavePaid:
		case catalog.IsBillable(e):
			row.Billable = row.Billable.Add(hours)
		default:
			row.NonBillable = row.NonBillable.Add(hours)
		}
	}

	row.WorkTotal = row.Billable.Add(row.NonBillable)
	row.GrandTotal = row.WorkTotal.Add(row.LeaveTotal)
	if overtime != nil {
		row.Overtime = overtime.OvertimeHours(userID, payStart, payEnd, entries)
	}
	return row
}

func addRows(total, row PayrollRow) PayrollRow {
	total.Billable = total.Billable.Add(row.Billable)
	total.NonBillable = total.NonBillable.Add(row.NonBillable)
	total.UnpaidLeave = total.UnpaidLeave.Add(row.UnpaidLeave)
	total.WorkTotal = total.WorkTotal.Add(row.WorkTotal)
	total.LeaveTotal = total.LeaveTotal.Add(row.LeaveTotal)
	total.GrandTotal = total.GrandTotal.Add(row.GrandTotal)
	total.Overtime = total.Overtime.Add(row.Overtime)

	for _, l := range row.PaidLeave {
		found := false
		for i := range total.PaidLeave {
			if total.PaidLeave[i].ProjectID == l.ProjectID {
				total.PaidLeave[i].Hours = total.PaidLeave[i].Hours.Add(l.Hours)
				found = true
				break
			}
		}
		if !found {
			total.PaidLeave = append(total.PaidLeave, l)
		}
	}
	sort.SliceStable(total.PaidLeave, func(i, j int) bool {
		return total.PaidLeave[i].Project < total.PaidLeave[j].Project
	})
	return total
}
