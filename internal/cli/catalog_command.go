package cli

import (
	"context"
	"strings"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
)

// CatalogFlags holds the project and activity attributes
type CatalogFlags struct {
	Billable bool
	Leave    string
	// Activities holds activity codes a project is restricted to
	Activities []string
}

// ProjectAddCommand handles the project add command
type ProjectAddCommand struct {
	app   *App
	flags CatalogFlags
}

// NewProjectAddCommand creates a new project add command handler
func NewProjectAddCommand(app *App, flags CatalogFlags) *ProjectAddCommand {
	return &ProjectAddCommand{app: app, flags: flags}
}

// Execute adds a project from <code> <name...>
func (c *ProjectAddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "project add", "usage: ts project add <code> <name>")
	}
	project := domain.Project{
		Code:     args[0],
		Name:     strings.Join(args[1:], " "),
		Billable: c.flags.Billable,
		Leave:    domain.LeaveKind(strings.ToLower(c.flags.Leave)),
	}
	if len(c.flags.Activities) > 0 {
		ids, err := c.activityIDs(ctx)
		if err != nil {
			return c.app.errorHandler.Handle("add project", err)
		}
		project.Activities = ids
	}

	created, err := c.app.services.CatalogService.AddProject(ctx, project)
	if err != nil {
		return c.app.errorHandler.Handle("add project", err)
	}
	c.app.printf("Added project %d: %s (%s)\n", created.ID, created.Name, created.Code)
	return nil
}

func (c *ProjectAddCommand) activityIDs(ctx context.Context) ([]int64, error) {
	activities, err := c.app.services.CatalogService.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]int64, len(activities))
	for _, a := range activities {
		byCode[a.Code] = a.ID
	}

	ids := make([]int64, 0, len(c.flags.Activities))
	for _, code := range c.flags.Activities {
		code = strings.ToLower(strings.TrimSpace(code))
		id, ok := byCode[code]
		if !ok {
			return nil, errors.NewNotFoundError("activity", code)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ProjectListCommand handles the project list command
type ProjectListCommand struct {
	app *App
}

// NewProjectListCommand creates a new project list command handler
func NewProjectListCommand(app *App) *ProjectListCommand {
	return &ProjectListCommand{app: app}
}

// Execute lists every project
func (c *ProjectListCommand) Execute(ctx context.Context, args []string) error {
	projects, err := c.app.services.CatalogService.ListProjects(ctx)
	if err != nil {
		return c.app.errorHandler.Handle("list projects", err)
	}
	if len(projects) == 0 {
		c.app.printf("No projects found\n")
		return nil
	}

	catalog, err := c.app.services.CatalogService.Catalog(ctx)
	if err != nil {
		return c.app.errorHandler.Handle("list projects", err)
	}

	tw := newTable(c.app.out)
	tw.row("ID", "CODE", "NAME", "BILLABLE", "LEAVE", "ACTIVITIES")
	for _, p := range projects {
		allowed := "any"
		if names := catalog.AllowedActivityNames(p.ID); len(names) > 0 {
			allowed = strings.Join(names, ", ")
		}
		tw.row(p.ID, p.Code, p.Name, p.Billable, p.Leave, allowed)
	}
	return tw.flush()
}

// ActivityAddCommand handles the activity add command
type ActivityAddCommand struct {
	app   *App
	flags CatalogFlags
}

// NewActivityAddCommand creates a new activity add command handler
func NewActivityAddCommand(app *App, flags CatalogFlags) *ActivityAddCommand {
	return &ActivityAddCommand{app: app, flags: flags}
}

// Execute adds an activity from <code> <name...>
func (c *ActivityAddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "activity add", "usage: ts activity add <code> <name>")
	}
	activity := domain.Activity{
		Code:     args[0],
		Name:     strings.Join(args[1:], " "),
		Billable: c.flags.Billable,
	}

	created, err := c.app.services.CatalogService.AddActivity(ctx, activity)
	if err != nil {
		return c.app.errorHandler.Handle("add activity", err)
	}
	c.app.printf("Added activity %d: %s (%s)\n", created.ID, created.Name, created.Code)
	return nil
}

// ActivityListCommand handles the activity list command
type ActivityListCommand struct {
	app *App
}

// NewActivityListCommand creates a new activity list command handler
func NewActivityListCommand(app *App) *ActivityListCommand {
	return &ActivityListCommand{app: app}
}

// Execute lists every activity
func (c *ActivityListCommand) Execute(ctx context.Context, args []string) error {
	activities, err := c.app.services.CatalogService.ListActivities(ctx)
	if err != nil {
		return c.app.errorHandler.Handle("list activities", err)
	}
	if len(activities) == 0 {
		c.app.printf("No activities found\n")
		return nil
	}

	tw := newTable(c.app.out)
	tw.row("ID", "CODE", "NAME", "BILLABLE")
	for _, a := range activities {
		tw.row(a.ID, a.Code, a.Name, a.Billable)
	}
	return tw.flush()
}
