package cli

import (
	"context"
	"strings"
	"time"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/services"
)

// EntryFlags holds the flags shared by entry add and entry edit
type EntryFlags struct {
	Project   string
	Activity  string
	Start     string
	End       string
	Paused    time.Duration
	Comments  string
	Writedown bool
	Override  bool
}

// input builds an EntryInput from the flags. Unset flags keep the values of base.
func (f EntryFlags) input(ctx context.Context, app *App, base services.EntryInput) (services.EntryInput, error) {
	input := base
	input.UserID = app.userID()

	if f.Project != "" {
		project, err := app.resolveProject(ctx, f.Project)
		if err != nil {
			return input, err
		}
		input.ProjectID = project.ID
	}
	if f.Activity != "" {
		activityID, err := app.resolveActivity(ctx, f.Activity)
		if err != nil {
			return input, err
		}
		input.ActivityID = activityID
	}
	if f.Start != "" {
		start, err := app.parseDateTime(f.Start)
		if err != nil {
			return input, err
		}
		input.Start = start
	}
	if f.End != "" {
		end, err := app.parseDateTime(f.End)
		if err != nil {
			return input, err
		}
		input.End = end
	}
	if f.Paused > 0 {
		input.SecondsPaused = int64(f.Paused / time.Second)
	}
	if f.Comments != "" {
		input.Comments = f.Comments
	}
	if f.Writedown {
		input.Writedown = true
	}
	return input, nil
}

// EntryAddCommand handles the entry add command
type EntryAddCommand struct {
	app   *App
	flags EntryFlags
}

// NewEntryAddCommand creates a new entry add command handler
func NewEntryAddCommand(app *App, flags EntryFlags) *EntryAddCommand {
	return &EntryAddCommand{app: app, flags: flags}
}

// Execute records a closed entry for the user
func (c *EntryAddCommand) Execute(ctx context.Context, args []string) error {
	if c.flags.Project == "" || c.flags.Start == "" || c.flags.End == "" {
		return errors.NewInvalidInputError("command", "entry add", "usage: ts entry add --project P --start T --end T")
	}
	input, err := c.flags.input(ctx, c.app, services.EntryInput{})
	if err != nil {
		return c.app.errorHandler.Handle("add entry", err)
	}

	entry, err := c.app.services.EntryService.AddEntry(ctx, input)
	if err != nil {
		return c.app.errorHandler.Handle("add entry", err)
	}
	c.app.printf("Added entry %d: %s hours\n", entry.ID, entry.Hours.StringFixed(2))
	return nil
}

// EntryEditCommand handles the entry edit command
type EntryEditCommand struct {
	app   *App
	flags EntryFlags
}

// NewEntryEditCommand creates a new entry edit command handler
func NewEntryEditCommand(app *App, flags EntryFlags) *EntryEditCommand {
	return &EntryEditCommand{app: app, flags: flags}
}

// Execute applies the set flags to the entry named by args[0]
func (c *EntryEditCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("command", "entry edit", "usage: ts entry edit <id> [flags]")
	}
	id, err := parseEntryID(args[0])
	if err != nil {
		return err
	}

	current, err := c.app.services.EntryService.GetEntry(ctx, id)
	if err != nil {
		return c.app.errorHandler.Handle("edit entry", err)
	}
	base := services.EntryInput{
		UserID:        current.UserID,
		ProjectID:     current.ProjectID,
		ActivityID:    current.ActivityID,
		Start:         current.StartTime,
		SecondsPaused: current.SecondsPaused,
		Comments:      current.Comments,
		Writedown:     current.Writedown,
	}
	if current.EndTime != nil {
		base.End = *current.EndTime
	}
	input, err := c.flags.input(ctx, c.app, base)
	if err != nil {
		return c.app.errorHandler.Handle("edit entry", err)
	}
	input.UserID = current.UserID

	entry, err := c.app.services.EntryService.EditEntry(ctx, id, input, c.flags.Override)
	if err != nil {
		return c.app.errorHandler.Handle("edit entry", err)
	}
	c.app.printf("Updated entry %d: %s hours\n", entry.ID, entry.Hours.StringFixed(2))
	return nil
}

// EntryStatusCommand handles the entry status command
type EntryStatusCommand struct {
	app *App
}

// NewEntryStatusCommand creates a new entry status command handler
func NewEntryStatusCommand(app *App) *EntryStatusCommand {
	return &EntryStatusCommand{app: app}
}

// Execute moves the entries in args[1:] to the review status in args[0]
func (c *EntryStatusCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "entry status", "usage: ts entry status <status> <id>...")
	}
	status := domain.EntryStatus(strings.ToLower(args[0]))
	for _, arg := range args[1:] {
		id, err := parseEntryID(arg)
		if err != nil {
			return err
		}
		entry, err := c.app.services.EntryService.SetStatus(ctx, id, status)
		if err != nil {
			return c.app.errorHandler.Handle("set entry status", err)
		}
		c.app.printf("Entry %d is %s\n", entry.ID, entry.Status)
	}
	return nil
}

// EntryListFlags holds the entry list filters
type EntryListFlags struct {
	Project  string
	Statuses []string
	AllUsers bool
}

// EntryListCommand handles the entry list command
type EntryListCommand struct {
	app   *App
	flags EntryListFlags
}

// NewEntryListCommand creates a new entry list command handler
func NewEntryListCommand(app *App, flags EntryListFlags) *EntryListCommand {
	return &EntryListCommand{app: app, flags: flags}
}

// Execute lists entries. An optional time shorthand such as 2w limits the
// list to entries that ended since then.
func (c *EntryListCommand) Execute(ctx context.Context, args []string) error {
	query := services.EntryQuery{}
	if !c.flags.AllUsers {
		userID := c.app.userID()
		query.UserID = &userID
	}
	if len(args) > 0 {
		duration, err := parseTimeShorthand(args[0])
		if err != nil {
			return errors.NewInvalidInputError("time", args[0], "expected a shorthand such as 30m, 2h, 1d, 2w, 3mo or 1y")
		}
		from := c.app.now().Add(-duration)
		query.From = &from
	}
	if c.flags.Project != "" {
		project, err := c.app.resolveProject(ctx, c.flags.Project)
		if err != nil {
			return c.app.errorHandler.Handle("list entries", err)
		}
		query.ProjectID = &project.ID
	}
	for _, s := range c.flags.Statuses {
		status := domain.EntryStatus(strings.ToLower(s))
		if !status.IsValid() {
			return errors.NewInvalidInputError("status", s, "unknown entry status")
		}
		query.Statuses = append(query.Statuses, status)
	}

	entries, err := c.app.services.EntryService.ListEntries(ctx, query)
	if err != nil {
		return c.app.errorHandler.Handle("list entries", err)
	}
	if len(entries) == 0 {
		c.app.printf("No entries found\n")
		return nil
	}
	catalog, err := c.app.services.CatalogService.Catalog(ctx)
	if err != nil {
		return c.app.errorHandler.Handle("list entries", err)
	}

	tw := newTable(c.app.out)
	tw.row("ID", "USER", "PROJECT", "START", "END", "HOURS", "STATUS")
	for _, e := range entries {
		end := "running"
		if e.EndTime != nil {
			end = c.app.formatTime(*e.EndTime)
		}
		tw.row(e.ID, e.UserID, catalog.ProjectName(e.ProjectID), c.app.formatTime(e.StartTime), end, e.Hours.StringFixed(2), e.Status)
	}
	return tw.flush()
}
