package report

import (
	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
)

// LeaveHours is the paid leave booked to one leave project.
type LeaveHours struct {
	ProjectID int64
	Project   string
	Hours     decimal.Decimal
}

// Summary totals a set of entries, usually one user's period.
type Summary struct {
	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	Invoiced    decimal.Decimal
	Uninvoiced  decimal.Decimal
	Total       decimal.Decimal
	// TotalWorked excludes paid leave.
	TotalWorked decimal.Decimal
	PaidLeave   []LeaveHours
}

// Summarize folds closed entries matching opts.Clause into a Summary.
// Paid leave projects appear in the order first seen.
func Summarize(entries []*domain.ClockEntry, opts Options) Summary {
	catalog := opts.catalog()
	s := Summary{}
	leaveIndex := make(map[int64]int)

	for _, e := range entries {
		if !opts.include(e) {
			continue
		}
		hours := entryHours(e)
		s.Total = s.Total.Add(hours)

		if catalog.IsBillable(e) {
			s.Billable = s.Billable.Add(hours)
		} else {
			s.NonBillable = s.NonBillable.Add(hours)
		}

		if e.Status == domain.StatusInvoiced {
			s.Invoiced = s.Invoiced.Add(hours)
		} else {
			s.Uninvoiced = s.Uninvoiced.Add(hours)
		}

		if catalog.LeaveKind(e) == domain.LeavePaid {
			i, ok := leaveIndex[e.ProjectID]
			if !ok {
				i = len(s.PaidLeave)
				leaveIndex[e.ProjectID] = i
				s.PaidLeave = append(s.PaidLeave, LeaveHours{ProjectID: e.ProjectID, Project: catalog.ProjectName(e.ProjectID)})
			}
			s.PaidLeave[i].Hours = s.PaidLeave[i].Hours.Add(hours)
			continue
		}
		s.TotalWorked = s.TotalWorked.Add(hours)
	}
	return s
}

// PaidLeaveTotal sums every paid leave project.
func (s Summary) PaidLeaveTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.PaidLeave {
		total = total.Add(l.Hours)
	}
	return total
}
