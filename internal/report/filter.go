package report

import (
	"strings"

	"timesheet/internal/domain"
)

// Clause is a predicate over entries. Clauses compose into a filter built once
// and evaluated in memory.
type Clause interface {
	Match(e *domain.ClockEntry, c *domain.Catalog) bool
	String() string
}

// BillableClause matches entries whose project and activity are both billable.
type BillableClause struct{}

func (BillableClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool { return c.IsBillable(e) }
func (BillableClause) String() string                                     { return "billable" }

// NonBillableClause matches every entry BillableClause does not.
type NonBillableClause struct{}

func (NonBillableClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool { return !c.IsBillable(e) }
func (NonBillableClause) String() string                                     { return "non-billable" }

// LeaveClause matches entries booked to a leave project of the given kind.
type LeaveClause struct {
	Kind domain.LeaveKind
}

func (l LeaveClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool {
	return c.LeaveKind(e) == l.Kind
}

func (l LeaveClause) String() string { return string(l.Kind) + "-leave" }

// WritedownClause matches entries flagged as written down.
type WritedownClause struct{}

func (WritedownClause) Match(e *domain.ClockEntry, _ *domain.Catalog) bool { return e.Writedown }
func (WritedownClause) String() string                                    { return "writedown" }

// AndClause matches when every clause matches. An empty AndClause matches everything.
type AndClause []Clause

func (a AndClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool {
	for _, clause := range a {
		if !clause.Match(e, c) {
			return false
		}
	}
	return true
}

func (a AndClause) String() string { return join(a, " and ") }

// OrClause matches when any clause matches. An empty OrClause matches nothing.
type OrClause []Clause

func (o OrClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool {
	for _, clause := range o {
		if clause.Match(e, c) {
			return true
		}
	}
	return false
}

func (o OrClause) String() string { return join(o, " or ") }

// NotClause inverts a clause.
type NotClause struct {
	Clause Clause
}

func (n NotClause) Match(e *domain.ClockEntry, c *domain.Catalog) bool {
	return !n.Clause.Match(e, c)
}

func (n NotClause) String() string { return "not " + n.Clause.String() }

func join(clauses []Clause, sep string) string {
	if len(clauses) == 0 {
		return "()"
	}
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// IncludeTypes selects which kinds of hours a report covers.
type IncludeTypes struct {
	Billable    bool
	NonBillable bool
	PaidLeave   bool
	UnpaidLeave bool
	Writedown   bool
}

// AllTypes includes every kind of hours except writedowns.
func AllTypes() IncludeTypes {
	return IncludeTypes{Billable: true, NonBillable: true, PaidLeave: true, UnpaidLeave: true}
}

// BuildEntryFilter composes the report filter: billable and non-billable work are
// OR-ed, leave projects are only matched when their kind is requested, and
// writedowns are dropped unless requested.
func BuildEntryFilter(inc IncludeTypes) Clause {
	var work OrClause
	if inc.Billable {
		work = append(work, BillableClause{})
	}
	if inc.NonBillable {
		work = append(work, NonBillableClause{})
	}

	kinds := OrClause{AndClause{work, NotClause{anyLeave}}}
	if inc.PaidLeave {
		kinds = append(kinds, LeaveClause{Kind: domain.LeavePaid})
	}
	if inc.UnpaidLeave {
		kinds = append(kinds, LeaveClause{Kind: domain.LeaveUnpaid})
	}

	if inc.Writedown {
		return kinds
	}
	return AndClause{kinds, NotClause{WritedownClause{}}}
}

var anyLeave = OrClause{LeaveClause{Kind: domain.LeavePaid}, LeaveClause{Kind: domain.LeaveUnpaid}}
