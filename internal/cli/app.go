package cli

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"timesheet/internal/config"
	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/period"
	"timesheet/internal/report"
	"timesheet/internal/services"
)

// timeNow is a variable that can be replaced in tests
var timeNow = time.Now

// App carries what every command handler needs
type App struct {
	services     *services.ServiceContainer
	config       *config.Config
	location     *time.Location
	out          io.Writer
	errorHandler *ErrorHandler
}

// NewApp creates a CLI application over the given services
func NewApp(container *services.ServiceContainer, cfg *config.Config, out io.Writer) *App {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	return &App{
		services:     container,
		config:       cfg,
		location:     loc,
		out:          out,
		errorHandler: NewErrorHandler(),
	}
}

// userID is the user the command acts for
func (a *App) userID() int64 {
	return a.config.Application.User
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) now() time.Time {
	return timeNow().In(a.location)
}

func (a *App) today() time.Time {
	return period.Date(a.now())
}

// formatTime renders an instant with the configured display format
func (a *App) formatTime(t time.Time) string {
	return t.In(a.location).Format(a.config.Time.DisplayFormat)
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDate reads a calendar day in the configured zone. "today" and
// "yesterday" are accepted.
func (a *App) parseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return a.today(), nil
	case "yesterday":
		return a.today().AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(period.DateLayout, strings.TrimSpace(s), a.location)
	if err != nil {
		return time.Time{}, errors.NewInvalidInputError("date", s, "expected YYYY-MM-DD")
	}
	return t, nil
}

// parseDateTime reads an instant in the configured zone. A bare "15:04" is
// taken on today's date.
func (a *App) parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, a.location); err == nil {
			return t, nil
		}
	}
	if clock, err := time.ParseInLocation("15:04", s, a.location); err == nil {
		y, m, d := a.today().Date()
		return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, a.location), nil
	}
	return time.Time{}, errors.NewInvalidInputError("time", s, "expected YYYY-MM-DD HH:MM")
}

// dateRange resolves --from/--to. Missing bounds fall back to the current
// pay period.
func (a *App) dateRange(from, to string) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		p, err := a.services.ReportingService.Period(a.today(), 0)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if from == "" {
			from = p.Start.Format(period.DateLayout)
		}
		if to == "" {
			to = p.End.Format(period.DateLayout)
		}
	}
	start, err := a.parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := a.parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.NewInvalidInputError("to", to, "must not be before --from")
	}
	return start, end, nil
}

// resolveProject accepts a project id or code
func (a *App) resolveProject(ctx context.Context, ref string) (domain.Project, error) {
	projects, err := a.services.CatalogService.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, p := range projects {
		if (idErr == nil && p.ID == id) || strings.EqualFold(p.Code, ref) {
			return p, nil
		}
	}
	return domain.Project{}, errors.NewNotFoundError("project", ref)
}

// resolveActivity accepts an activity id or code. An empty ref means none.
func (a *App) resolveActivity(ctx context.Context, ref string) (int64, error) {
	if ref == "" {
		return 0, nil
	}
	activities, err := a.services.CatalogService.ListActivities(ctx)
	if err != nil {
		return 0, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, act := range activities {
		if (idErr == nil && act.ID == id) || strings.EqualFold(act.Code, ref) {
			return act.ID, nil
		}
	}
	return 0, errors.NewNotFoundError("activity", ref)
}

// parseEntryID reads a positional entry id
func parseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidInputError("id", s, "must be a positive entry id")
	}
	return id, nil
}

// parseInclude reads a comma separated list of hour kinds. An empty list
// selects every kind except writedowns.
func parseInclude(s string) (report.IncludeTypes, error) {
	if strings.TrimSpace(s) == "" {
		return report.AllTypes(), nil
	}
	var inc report.IncludeTypes
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "billable":
			inc.Billable = true
		case "non-billable", "nonbillable":
			inc.NonBillable = true
		case "paid-leave", "paid":
			inc.PaidLeave = true
		case "unpaid-leave", "unpaid":
			inc.UnpaidLeave = true
		case "writedown", "writedowns":
			inc.Writedown = true
		case "all":
			all := report.AllTypes()
			all.Writedown = inc.Writedown
			inc = all
		default:
			return report.IncludeTypes{}, errors.NewInvalidInputError("include", part, "expected billable, non-billable, paid-leave, unpaid-leave, writedown or all")
		}
	}
	return inc, nil
}

// parseTimeShorthand parses time shorthand like "30m", "2h", "1d", etc.
func parseTimeShorthand(shorthand string) (time.Duration, error) {
	re := regexp.MustCompile(`^(\d+)(m|h|d|w|mo|y)$`)
	matches := re.FindStringSubmatch(shorthand)
	if matches == nil {
		return 0, fmt.Errorf("invalid time format: %s", shorthand)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in time format: %s", shorthand)
	}

	day := 24 * time.Hour
	switch matches[2] {
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * day, nil
	case "w":
		return time.Duration(value) * 7 * day, nil
	case "mo":
		return time.Duration(value) * 30 * day, nil
	case "y":
		return time.Duration(value) * 365 * day, nil
	}
	return 0, fmt.Errorf("invalid time unit: %s", matches[2])
}
