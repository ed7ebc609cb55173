package cli

import (
	"context"

	"timesheet/internal/period"
	"timesheet/internal/report"
	"timesheet/internal/services"
)

// ReportFlags holds the flags shared by the report commands
type ReportFlags struct {
	From        string
	To          string
	GroupBy     string
	Granularity string
	Include     string
	AllUsers    bool
}

// ReportCommand handles the report command: an hours grid per group and date
type ReportCommand struct {
	app   *App
	flags ReportFlags
}

// NewReportCommand creates a new report command handler
func NewReportCommand(app *App, flags ReportFlags) *ReportCommand {
	return &ReportCommand{app: app, flags: flags}
}

// Execute prints the grid for the requested range
func (c *ReportCommand) Execute(ctx context.Context, args []string) error {
	req, err := c.request()
	if err != nil {
		return err
	}
	grid, err := c.app.services.ReportingService.Grid(ctx, req)
	if err != nil {
		return c.app.errorHandler.Handle("build report", err)
	}

	header := []interface{}{string(req.GroupBy)}
	for _, h := range grid.Headers {
		header = append(header, headerText(h, req.Granularity))
	}
	header = append(header, "TOTAL", "BILLABLE", "NON-BILLABLE")

	tw := newTable(c.app.out)
	tw.row(header...)
	for _, row := range grid.Rows {
		cells := []interface{}{row.Name}
		for _, cell := range row.Cells {
			cells = append(cells, hours(cell.Total))
		}
		tw.row(append(cells, totalsCells(row.Total)...)...)
	}
	totals := []interface{}{"Totals"}
	for _, t := range grid.Totals {
		totals = append(totals, hours(t.Total))
	}
	tw.row(append(totals, totalsCells(grid.Total)...)...)
	return tw.flush()
}

func (c *ReportCommand) request() (services.ReportRequest, error) {
	from, to, err := c.app.dateRange(c.flags.From, c.flags.To)
	if err != nil {
		return services.ReportRequest{}, err
	}
	req := services.ReportRequest{From: from, To: to, GroupBy: report.GroupByProject, Granularity: period.GranularityWeek}
	if c.flags.GroupBy != "" {
		if req.GroupBy, err = report.ParseGroupBy(c.flags.GroupBy); err != nil {
			return req, c.app.errorHandler.HandleSimple(err)
		}
	}
	if c.flags.Granularity != "" {
		if req.Granularity, err = period.ParseGranularity(c.flags.Granularity); err != nil {
			return req, c.app.errorHandler.HandleSimple(err)
		}
	}
	if req.Include, err = parseInclude(c.flags.Include); err != nil {
		return req, err
	}
	if !c.flags.AllUsers {
		userID := c.app.userID()
		req.UserID = &userID
	}
	return req, nil
}

// TimesheetCommand handles the timesheet command
type TimesheetCommand struct {
	app   *App
	flags ReportFlags
}

// NewTimesheetCommand creates a new timesheet command handler
func NewTimesheetCommand(app *App, flags ReportFlags) *TimesheetCommand {
	return &TimesheetCommand{app: app, flags: flags}
}

// Execute prints the user's display weeks with daily project totals
func (c *TimesheetCommand) Execute(ctx context.Context, args []string) error {
	from, to, err := c.app.dateRange(c.flags.From, c.flags.To)
	if err != nil {
		return err
	}
	weeks, err := c.app.services.ReportingService.Timesheet(ctx, c.app.userID(), from, to)
	if err != nil {
		return c.app.errorHandler.Handle("build timesheet", err)
	}
	if len(weeks) == 0 {
		c.app.printf("No weeks in range\n")
		return nil
	}

	tw := newTable(c.app.out)
	for _, w := range weeks {
		tw.row("Week", w.Label, w.Start.Format(period.DateLayout)+".."+w.End.Format(period.DateLayout))
		for _, d := range w.Days {
			for _, p := range d.Projects {
				tw.row("", d.Date.Format("Mon 01-02"), p.Name, hours(p.Totals.Total))
			}
		}
		tw.row(append([]interface{}{"", "Total", ""}, totalsCells(w.Adjusted)...)...)
	}
	return tw.flush()
}

// SummaryCommand handles the summary command
type SummaryCommand struct {
	app   *App
	flags ReportFlags
}

// NewSummaryCommand creates a new summary command handler
func NewSummaryCommand(app *App, flags ReportFlags) *SummaryCommand {
	return &SummaryCommand{app: app, flags: flags}
}

// Execute prints the user's hour totals, default the current period
func (c *SummaryCommand) Execute(ctx context.Context, args []string) error {
	from, to, err := c.app.dateRange(c.flags.From, c.flags.To)
	if err != nil {
		return err
	}
	include, err := parseInclude(c.flags.Include)
	if err != nil {
		return err
	}
	s, err := c.app.services.ReportingService.Summary(ctx, c.app.userID(), from, to, include)
	if err != nil {
		return c.app.errorHandler.Handle("build summary", err)
	}

	tw := newTable(c.app.out)
	tw.row("Billable", hours(s.Billable))
	tw.row("Non-billable", hours(s.NonBillable))
	for _, l := range s.PaidLeave {
		tw.row(l.Project, hours(l.Hours))
	}
	tw.row("Invoiced", hours(s.Invoiced))
	tw.row("Uninvoiced", hours(s.Uninvoiced))
	tw.row("Worked", hours(s.TotalWorked))
	tw.row("Total", hours(s.Total))
	return tw.flush()
}

// OvertimeCommand handles the overtime command
type OvertimeCommand struct {
	app   *App
	flags ReportFlags
}

// NewOvertimeCommand creates a new overtime command handler
func NewOvertimeCommand(app *App, flags ReportFlags) *OvertimeCommand {
	return &OvertimeCommand{app: app, flags: flags}
}

// Execute prints the weekly hours around the pay period and the overtime counted in it
func (c *OvertimeCommand) Execute(ctx context.Context, args []string) error {
	from, to, err := c.app.dateRange(c.flags.From, c.flags.To)
	if err != nil {
		return err
	}
	weeks, overtime, err := c.app.services.ReportingService.Overtime(ctx, c.app.userID(), from, to.AddDate(0, 0, 1))
	if err != nil {
		return c.app.errorHandler.Handle("compute overtime", err)
	}

	tw := newTable(c.app.out)
	tw.row("WEEK", "HOURS", "OVERTIME", "COUNTED")
	for _, w := range weeks {
		tw.row(w.Start.Format(period.DateLayout), hours(w.Hours), hours(w.Overtime), w.Counted)
	}
	tw.row("Total", "", hours(overtime), "")
	return tw.flush()
}

// PayrollCommand handles the payroll command
type PayrollCommand struct {
	app   *App
	flags ReportFlags
}

// NewPayrollCommand creates a new payroll command handler
func NewPayrollCommand(app *App, flags ReportFlags) *PayrollCommand {
	return &PayrollCommand{app: app, flags: flags}
}

// Execute prints a row per user for the pay period
func (c *PayrollCommand) Execute(ctx context.Context, args []string) error {
	from, to, err := c.app.dateRange(c.flags.From, c.flags.To)
	if err != nil {
		return err
	}
	include, err := parseInclude(c.flags.Include)
	if err != nil {
		return err
	}
	payroll, err := c.app.services.ReportingService.Payroll(ctx, from, to.AddDate(0, 0, 1), include)
	if err != nil {
		return c.app.errorHandler.Handle("build payroll", err)
	}

	tw := newTable(c.app.out)
	tw.row("USER", "BILLABLE", "NON-BILLABLE", "WORK", "PAID LEAVE", "UNPAID LEAVE", "TOTAL", "OVERTIME")
	for _, r := range payroll.Rows {
		payrollRow(tw, r)
	}
	payrollRow(tw, payroll.Totals)
	return tw.flush()
}

func payrollRow(tw *table, r report.PayrollRow) {
	tw.row(r.Name, hours(r.Billable), hours(r.NonBillable), hours(r.WorkTotal),
		hours(r.LeaveTotal), hours(r.UnpaidLeave), hours(r.GrandTotal), hours(r.Overtime))
}
