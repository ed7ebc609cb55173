package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/period"
	"timesheet/internal/report"
)

// EntryInput describes a manually entered or edited clock entry
type EntryInput struct {
	UserID     int64
	ProjectID  int64
	ActivityID int64
	Start      time.Time
	End        time.Time
	// SecondsPaused is the pause already taken inside [Start, End)
	SecondsPaused int64
	Comments      string
	Writedown     bool
}

// EntryQuery selects stored entries by the day they ended
type EntryQuery struct {
	UserID    *int64
	ProjectID *int64
	From      *time.Time
	To        *time.Time
	Statuses  []domain.EntryStatus
}

// ReportRequest selects the entries a report covers and how they are folded
type ReportRequest struct {
	UserID      *int64
	From        time.Time
	To          time.Time
	GroupBy     report.GroupBy
	Granularity period.Granularity
	Include     report.IncludeTypes
}

// TimesheetWeek is a display week of a user's timesheet
type TimesheetWeek = report.WeekTotals

// ClockService drives the live clock of a user's single open entry
type ClockService interface {
	ClockIn(ctx context.Context, userID, projectID int64) (*domain.ClockEntry, error)
	Pause(ctx context.Context, userID int64) (*domain.ClockEntry, error)
	Unpause(ctx context.Context, userID int64) (*domain.ClockEntry, error)
	Toggle(ctx context.Context, userID int64) (*domain.ClockEntry, error)
	ClockOut(ctx context.Context, userID, activityID int64, comments string) (*domain.ClockEntry, error)

	// Active returns the user's open entry, or nil when clocked out
	Active(ctx context.Context, userID int64) (*domain.ClockEntry, error)
}

// EntryService handles manual entry edits and review status
type EntryService interface {
	AddEntry(ctx context.Context, input EntryInput) (*domain.ClockEntry, error)
	EditEntry(ctx context.Context, id int64, input EntryInput, override bool) (*domain.ClockEntry, error)
	SetStatus(ctx context.Context, id int64, status domain.EntryStatus) (*domain.ClockEntry, error)
	GetEntry(ctx context.Context, id int64) (*domain.ClockEntry, error)
	ListEntries(ctx context.Context, query EntryQuery) ([]*domain.ClockEntry, error)
}

// CatalogService manages projects and activities
type CatalogService interface {
	AddProject(ctx context.Context, project domain.Project) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	AddActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error)
	ListActivities(ctx context.Context) ([]domain.Activity, error)
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

// ReportingService computes periods, weekly timesheets and payroll
type ReportingService interface {
	// Period operations
	Period(date time.Time, delta int) (period.Period, error)
	Week(date time.Time) period.Period

	// Aggregation operations
	Aggregate(ctx context.Context, req ReportRequest) ([]report.Bucket, error)
	Grid(ctx context.Context, req ReportRequest) (report.Grid, error)
	Timesheet(ctx context.Context, userID int64, from, to time.Time) ([]TimesheetWeek, error)
	Summary(ctx context.Context, userID int64, from, to time.Time, include report.IncludeTypes) (report.Summary, error)

	// Payroll operations
	Overtime(ctx context.Context, userID int64, payStart, payEnd time.Time) ([]report.WeekHours, decimal.Decimal, error)
	Payroll(ctx context.Context, payStart, payEnd time.Time, include report.IncludeTypes) (*report.PayrollReport, error)
}

// CloseoutService closes periods and entries to further edits
type CloseoutService interface {
	// LockPeriod closes [start, end) for the user, or for everyone when userID is nil
	LockPeriod(ctx context.Context, userID *int64, start, end time.Time) error
	// Invoice attaches the entries to a new invoice for the project and returns its id
	Invoice(ctx context.Context, projectID int64, entryIDs []int64) (string, error)
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	ClockService     ClockService
	EntryService     EntryService
	CatalogService   CatalogService
	ReportingService ReportingService
	CloseoutService  CloseoutService
}
