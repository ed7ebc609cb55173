package cli

import (
	"context"
	"strings"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/services"
)

// ClockInCommand handles the clock-in command
type ClockInCommand struct {
	app   *App
	clock services.ClockService
}

// NewClockInCommand creates a new clock-in command handler
func NewClockInCommand(app *App) *ClockInCommand {
	return &ClockInCommand{app: app, clock: app.services.ClockService}
}

// Execute clocks the user in on the project named by args[0]. An entry that
// is still open is closed first.
func (c *ClockInCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("command", "clock-in", "usage: ts clock-in <project>")
	}
	project, err := c.app.resolveProject(ctx, args[0])
	if err != nil {
		return c.app.errorHandler.Handle("clock in", err)
	}

	previous, err := c.clock.Active(ctx, c.app.userID())
	if err != nil {
		return c.app.errorHandler.Handle("clock in", err)
	}

	entry, err := c.clock.ClockIn(ctx, c.app.userID(), project.ID)
	if err != nil {
		return c.app.errorHandler.Handle("clock in", err)
	}

	if previous != nil {
		c.app.printf("Clocked out of entry %d\n", previous.ID)
	}
	c.app.printf("Clocked in on %s at %s (entry %d)\n", project.Name, c.app.formatTime(entry.StartTime), entry.ID)
	return nil
}

// TransitionCommand handles pause, unpause and toggle
type TransitionCommand struct {
	app    *App
	name   string
	action func(ctx context.Context, userID int64) (*domain.ClockEntry, error)
}

// NewPauseCommand creates a new pause command handler
func NewPauseCommand(app *App) *TransitionCommand {
	return &TransitionCommand{app: app, name: "pause", action: app.services.ClockService.Pause}
}

// NewUnpauseCommand creates a new unpause command handler
func NewUnpauseCommand(app *App) *TransitionCommand {
	return &TransitionCommand{app: app, name: "unpause", action: app.services.ClockService.Unpause}
}

// NewToggleCommand creates a new toggle command handler
func NewToggleCommand(app *App) *TransitionCommand {
	return &TransitionCommand{app: app, name: "toggle", action: app.services.ClockService.Toggle}
}

// Execute runs the transition on the user's open entry
func (c *TransitionCommand) Execute(ctx context.Context, args []string) error {
	entry, err := c.action(ctx, c.app.userID())
	if err != nil {
		return c.app.errorHandler.Handle(c.name+" entry", err)
	}
	state := "running"
	if entry.IsPaused() {
		state = "paused"
	}
	c.app.printf("Entry %d is %s (%s paused so far)\n", entry.ID, state, secondsText(entry.PausedSeconds(c.app.now())))
	return nil
}

// ClockOutCommand handles the clock-out command
type ClockOutCommand struct {
	app      *App
	activity string
	comments string
}

// NewClockOutCommand creates a new clock-out command handler
func NewClockOutCommand(app *App, activity, comments string) *ClockOutCommand {
	return &ClockOutCommand{app: app, activity: activity, comments: comments}
}

// Execute closes the user's open entry. Extra args are appended to the comment.
func (c *ClockOutCommand) Execute(ctx context.Context, args []string) error {
	activityID, err := c.app.resolveActivity(ctx, c.activity)
	if err != nil {
		return c.app.errorHandler.Handle("clock out", err)
	}
	comments := strings.TrimSpace(strings.Join(append([]string{c.comments}, args...), " "))

	entry, err := c.app.services.ClockService.ClockOut(ctx, c.app.userID(), activityID, comments)
	if err != nil {
		return c.app.errorHandler.Handle("clock out", err)
	}
	c.app.printf("Clocked out of entry %d at %s: %s hours\n", entry.ID, c.app.formatTime(*entry.EndTime), entry.Hours.StringFixed(2))
	return nil
}

// ActiveCommand handles the active command
type ActiveCommand struct {
	app *App
}

// NewActiveCommand creates a new active command handler
func NewActiveCommand(app *App) *ActiveCommand {
	return &ActiveCommand{app: app}
}

// Execute shows the user's open entry, if any
func (c *ActiveCommand) Execute(ctx context.Context, args []string) error {
	entry, err := c.app.services.ClockService.Active(ctx, c.app.userID())
	if err != nil {
		return c.app.errorHandler.Handle("get active entry", err)
	}
	if entry == nil {
		c.app.printf("Not clocked in\n")
		return nil
	}

	catalog, err := c.app.services.CatalogService.Catalog(ctx)
	if err != nil {
		return c.app.errorHandler.Handle("get active entry", err)
	}
	state := "running"
	if entry.IsPaused() {
		state = "paused"
	}
	c.app.printf("Entry %d on %s since %s, %s (%s hours)\n",
		entry.ID, catalog.ProjectName(entry.ProjectID), c.app.formatTime(entry.StartTime), state, entry.Hours.StringFixed(2))
	return nil
}
