package cli

import (
	"context"

	"timesheet/internal/errors"
	"timesheet/internal/period"
)

// LockPeriodCommand handles the lock-period command
type LockPeriodCommand struct {
	app      *App
	from     string
	to       string
	everyone bool
}

// NewLockPeriodCommand creates a new lock-period command handler
func NewLockPeriodCommand(app *App, from, to string, everyone bool) *LockPeriodCommand {
	return &LockPeriodCommand{app: app, from: from, to: to, everyone: everyone}
}

// Execute closes the dates [from, to] to edits, default the previous period
func (c *LockPeriodCommand) Execute(ctx context.Context, args []string) error {
	from, to := c.from, c.to
	if from == "" && to == "" {
		p, err := c.app.services.ReportingService.Period(c.app.today(), 1)
		if err != nil {
			return c.app.errorHandler.Handle("lock period", err)
		}
		from, to = p.Start.Format(period.DateLayout), p.End.Format(period.DateLayout)
	}
	start, end, err := c.app.dateRange(from, to)
	if err != nil {
		return err
	}

	var userID *int64
	if !c.everyone {
		id := c.app.userID()
		userID = &id
	}
	if err := c.app.services.CloseoutService.LockPeriod(ctx, userID, start, end.AddDate(0, 0, 1)); err != nil {
		return c.app.errorHandler.Handle("lock period", err)
	}
	c.app.printf("Locked %s..%s\n", start.Format(period.DateLayout), end.Format(period.DateLayout))
	return nil
}

// InvoiceCommand handles the invoice command
type InvoiceCommand struct {
	app *App
}

// NewInvoiceCommand creates a new invoice command handler
func NewInvoiceCommand(app *App) *InvoiceCommand {
	return &InvoiceCommand{app: app}
}

// Execute invoices the entries args[1:] against the project args[0]
func (c *InvoiceCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "invoice", "usage: ts invoice <project> <entry id>...")
	}
	project, err := c.app.resolveProject(ctx, args[0])
	if err != nil {
		return c.app.errorHandler.Handle("invoice entries", err)
	}
	ids := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := parseEntryID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	invoiceID, err := c.app.services.CloseoutService.Invoice(ctx, project.ID, ids)
	if err != nil {
		return c.app.errorHandler.Handle("invoice entries", err)
	}
	c.app.printf("Invoice %s: %d entries for %s\n", invoiceID, len(ids), project.Name)
	return nil
}
