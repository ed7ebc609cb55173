package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/period"
	"timesheet/internal/report"
	"timesheet/internal/repository"
)

// reportingServiceImpl implements the ReportingService interface
type reportingServiceImpl struct {
	*base
	calculator *period.Calculator
}

// NewReportingService creates a new ReportingService instance
func NewReportingService(deps Dependencies) ReportingService {
	return newReportingService(newBase(deps))
}

func newReportingService(b *base) *reportingServiceImpl {
	return &reportingServiceImpl{base: b, calculator: period.NewCalculator(b.settings.PeriodPolicy)}
}

// Period returns the accounting period delta periods before the one containing date
func (r *reportingServiceImpl) Period(date time.Time, delta int) (period.Period, error) {
	return r.calculator.PeriodOffsetBy(r.localDate(date), delta)
}

// Week returns the week containing date
func (r *reportingServiceImpl) Week(date time.Time) period.Period {
	return period.Week(r.localDate(date), r.settings.WeekStart)
}

// Aggregate folds the entries ending in [req.From, req.To] into date buckets
func (r *reportingServiceImpl) Aggregate(ctx context.Context, req ReportRequest) ([]report.Bucket, error) {
	defer r.metrics.ObserveReport("aggregate", time.Now())

	entries, catalog, err := r.load(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return report.Aggregate(entries, req.GroupBy, req.Granularity, r.options(catalog, req.Include)), nil
}

// Grid lays the aggregate out with a column for every bucket in the range, empty or not
func (r *reportingServiceImpl) Grid(ctx context.Context, req ReportRequest) (report.Grid, error) {
	buckets, err := r.Aggregate(ctx, req)
	if err != nil {
		return report.Grid{}, err
	}
	headers := period.DateHeaders(r.localDate(req.From), r.localDate(req.To), req.Granularity, r.settings.WeekStart)
	return report.BuildGrid(buckets, headers), nil
}

// Timesheet returns the user's display weeks starting within [from, to]
func (r *reportingServiceImpl) Timesheet(ctx context.Context, userID int64, from, to time.Time) ([]TimesheetWeek, error) {
	defer r.metrics.ObserveReport("timesheet", time.Now())

	from, to = r.localDate(from), r.localDate(to)
	first := period.WeekStart(from, r.settings.DisplayWeekStart)
	last := period.WeekStart(to, r.settings.DisplayWeekStart)

	// boundary correction reads a week either side
	entries, catalog, err := r.load(ctx, &userID, first.AddDate(0, 0, -7), last.AddDate(0, 0, 13))
	if err != nil {
		return nil, err
	}
	weeks := report.WeeklyTotals(entries, r.settings.DisplayWeekStart, r.options(catalog, report.AllTypes()))
	return report.WeeksBetween(weeks, first, last), nil
}

// Summary totals the user's entries ending in [from, to]
func (r *reportingServiceImpl) Summary(ctx context.Context, userID int64, from, to time.Time, include report.IncludeTypes) (report.Summary, error) {
	defer r.metrics.ObserveReport("summary", time.Now())

	entries, catalog, err := r.load(ctx, &userID, from, to)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(entries, r.options(catalog, include)), nil
}

// Overtime returns the user's weeks around the pay period [payStart, payEnd) and the overtime counted in it
func (r *reportingServiceImpl) Overtime(ctx context.Context, userID int64, payStart, payEnd time.Time) ([]report.WeekHours, decimal.Decimal, error) {
	defer r.metrics.ObserveReport("overtime", time.Now())

	payStart, payEnd = r.localDate(payStart), r.localDate(payEnd)
	catalog, err := r.catalog(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	calc := report.NewOvertimeCalculator(r.settings.OvertimeThreshold, r.options(catalog, report.AllTypes()))

	from, to := calc.QueryRange(payStart, payEnd)
	entries, err := r.entriesBetween(ctx, &userID, from, to)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return calc.Weeks(userID, payStart, payEnd, entries), calc.OvertimeHours(userID, payStart, payEnd, entries), nil
}

// Payroll computes a row per user for the pay period [payStart, payEnd)
func (r *reportingServiceImpl) Payroll(ctx context.Context, payStart, payEnd time.Time, include report.IncludeTypes) (*report.PayrollReport, error) {
	defer r.metrics.ObserveReport("payroll", time.Now())

	payStart, payEnd = r.localDate(payStart), r.localDate(payEnd)
	catalog, err := r.catalog(ctx)
	if err != nil {
		return nil, err
	}
	opts := r.options(catalog, include)
	calc := report.NewOvertimeCalculator(r.settings.OvertimeThreshold, opts)

	qctx, cancel := r.queryContext(ctx)
	users, err := r.repo.ListUserIDs(qctx)
	cancel()
	if err != nil {
		return nil, err
	}

	from, to := calc.QueryRange(payStart, payEnd)
	entries, err := r.entriesBetween(ctx, nil, from, to)
	if err != nil {
		return nil, err
	}

	payroll, err := report.Payroll(ctx, users, entries, payStart, payEnd, calc, opts)
	if err != nil {
		return nil, err
	}
	r.log.Info(ctx, "payroll computed", "start", payStart.Format(period.DateLayout), "users", len(users),
		"hours", payroll.Totals.GrandTotal.String(), "overtime", payroll.Totals.Overtime.String())
	return payroll, nil
}

// load reads the catalog and the entries ending on the dates [from, to]
func (r *reportingServiceImpl) load(ctx context.Context, userID *int64, from, to time.Time) ([]*domain.ClockEntry, *domain.Catalog, error) {
	catalog, err := r.catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries, err := r.entriesBetween(ctx, userID, r.localDate(from), r.localDate(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, err
	}
	return entries, catalog, nil
}

// entriesBetween reads the entries ending in the instant range [from, to)
func (r *reportingServiceImpl) entriesBetween(ctx context.Context, userID *int64, from, to time.Time) ([]*domain.ClockEntry, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.repo.SearchEntries(ctx, repository.EntryFilter{UserID: userID, EndFrom: &from, EndTo: &to})
	if err != nil {
		return nil, err
	}
	return r.entries.FromDatabaseSlice(derefAll(rows)), nil
}

func (r *reportingServiceImpl) catalog(ctx context.Context) (*domain.Catalog, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()
	return r.loadCatalog(ctx, r.repo)
}

func (r *reportingServiceImpl) options(catalog *domain.Catalog, include report.IncludeTypes) report.Options {
	if include == (report.IncludeTypes{}) {
		include = report.AllTypes()
	}
	return report.Options{
		Catalog:   catalog,
		Location:  r.settings.Location,
		WeekStart: r.settings.WeekStart,
		Clause:    report.BuildEntryFilter(include),
	}
}

// localDate is midnight of t's calendar day in the configured location
func (b *base) localDate(t time.Time) time.Time {
	y, m, d := t.In(b.settings.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.settings.Location)
}
