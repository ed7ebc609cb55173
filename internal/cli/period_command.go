package cli

import (
	"context"
	"time"

	"timesheet/internal/errors"
)

// parseOptionalDate reads the single optional date argument
func parseOptionalDate(app *App, args []string) (time.Time, error) {
	switch len(args) {
	case 0:
		return app.today(), nil
	case 1:
		return app.parseDate(args[0])
	}
	return time.Time{}, errors.NewInvalidInputError("args", args, "expected at most one date")
}

// PeriodCommand handles the period command
type PeriodCommand struct {
	app    *App
	offset int
}

// NewPeriodCommand creates a new period command handler. offset counts
// periods back from the one containing the date.
func NewPeriodCommand(app *App, offset int) *PeriodCommand {
	return &PeriodCommand{app: app, offset: offset}
}

// Execute prints the accounting period for args[0], default today
func (c *PeriodCommand) Execute(ctx context.Context, args []string) error {
	date, err := parseOptionalDate(c.app, args)
	if err != nil {
		return err
	}
	p, err := c.app.services.ReportingService.Period(date, c.offset)
	if err != nil {
		return c.app.errorHandler.Handle("compute period", err)
	}
	c.app.printf("%s (%d days)\n", p.String(), p.Days())
	return nil
}

// WeekCommand handles the week command
type WeekCommand struct {
	app *App
}

// NewWeekCommand creates a new week command handler
func NewWeekCommand(app *App) *WeekCommand {
	return &WeekCommand{app: app}
}

// Execute prints the week containing args[0], default today
func (c *WeekCommand) Execute(ctx context.Context, args []string) error {
	date, err := parseOptionalDate(c.app, args)
	if err != nil {
		return err
	}
	c.app.printf("%s\n", c.app.services.ReportingService.Week(date).String())
	return nil
}
