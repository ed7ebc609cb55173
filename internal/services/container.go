package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/lock"
	"timesheet/internal/logging"
	"timesheet/internal/metrics"
	"timesheet/internal/period"
	"timesheet/internal/repository"
)

// Settings carries the configuration the services depend on
type Settings struct {
	MaxDuration       time.Duration
	QueryTimeout      time.Duration
	WriteTimeout      time.Duration
	Location          *time.Location
	WeekStart         time.Weekday
	DisplayWeekStart  time.Weekday
	OvertimeThreshold decimal.Decimal
	// PeriodPolicy may be nil; period lookups then fail as unconfigured
	PeriodPolicy *period.Policy
	// Now defaults to time.Now
	Now func() time.Time
}

// Dependencies bundles the collaborators shared by every service
type Dependencies struct {
	Repo     repository.Repository
	Logger   logging.Logger
	Metrics  *metrics.Metrics
	Settings Settings
}

// NewServiceContainer wires all services around a single repository.
// Clock and entry writes share one per-user lock.
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	b := newBase(deps)
	users := lock.NewKeyedMutex()
	return &ServiceContainer{
		ClockService:     newClockService(b, users),
		EntryService:     newEntryService(b, users),
		CatalogService:   newCatalogService(b),
		ReportingService: newReportingService(b),
		CloseoutService:  newCloseoutService(b),
	}
}

// base holds what every service implementation needs
type base struct {
	repo     repository.Repository
	log      logging.Logger
	metrics  *metrics.Metrics
	settings Settings
	entries  *domain.EntryMapper
	catalogs *domain.CatalogMapper
}

func newBase(deps Dependencies) *base {
	settings := deps.Settings
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.MaxDuration <= 0 {
		settings.MaxDuration = 12 * time.Hour
	}
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &base{
		repo:     deps.Repo,
		log:      log,
		metrics:  deps.Metrics,
		settings: settings,
		entries:  domain.NewEntryMapper(),
		catalogs: domain.NewCatalogMapper(),
	}
}

// now returns the current instant truncated to whole seconds
func (b *base) now() time.Time {
	return b.settings.Now().Truncate(time.Second)
}

func (b *base) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, b.settings.QueryTimeout)
}

func (b *base) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, b.settings.WriteTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// loadCatalog reads every project and activity through repo
func (b *base) loadCatalog(ctx context.Context, repo repository.Repository) (*domain.Catalog, error) {
	projects, err := repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := repo.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	return b.catalogs.CatalogFromDatabase(derefAll(projects), derefAll(activities)), nil
}

// overlapCandidates returns the user's stored entries that may overlap the candidate
func (b *base) overlapCandidates(ctx context.Context, repo repository.Repository, candidate *domain.ClockEntry) ([]*domain.ClockEntry, error) {
	start, end := candidate.Span()
	rows, err := repo.OverlapCandidates(ctx, candidate.UserID, start, end)
	if err != nil {
		return nil, err
	}
	return b.entries.FromDatabaseSlice(derefAll(rows)), nil
}

func derefAll[T any](rows []*T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}

// repoLocks answers locked-period questions from the store
type repoLocks struct {
	repo     repository.Repository
	location *time.Location
}

func (l repoLocks) IsLocked(ctx context.Context, userID int64, at time.Time) (bool, error) {
	periods, err := l.repo.LockedPeriodsAt(ctx, userID, at)
	if err != nil {
		return false, err
	}
	return len(periods) > 0, nil
}

func (l repoLocks) MonthLocked(ctx context.Context, userID int64, at time.Time) (bool, error) {
	monthStart := period.StartOfMonth(at.In(l.location))
	count, err := l.repo.LockedMonthEntries(ctx, userID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
