package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"timesheet/internal/domain"
	"timesheet/internal/logging"
	"timesheet/internal/metrics"
	"timesheet/internal/period"
	"timesheet/internal/repository"
	"timesheet/internal/repository/sqlite"
)

// fakeClock is a settable clock shared by every service under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	services *ServiceContainer
	repo     repository.Repository
	metrics  *metrics.Metrics
	clock    *fakeClock
	logs     *bytes.Buffer

	dev, admin, vacation, unpaid int64
	coding, meeting              int64
}

// setupServices builds the container over a fresh in-memory database seeded
// with a billable project, an internal project and two leave projects
func setupServices(t *testing.T) *testEnv {
	t.Helper()
	return setupServicesOn(t, sqlite.MemoryPath, unwrapped)
}

// setupServicesOver is setupServices with the repository passed through wrap
func setupServicesOver(t *testing.T, wrap func(repository.Repository) repository.Repository) *testEnv {
	t.Helper()
	return setupServicesOn(t, sqlite.MemoryPath, wrap)
}

func unwrapped(repo repository.Repository) repository.Repository { return repo }

// setupServicesOn builds the container over the SQLite database at dbPath
func setupServicesOn(t *testing.T, dbPath string, wrap func(repository.Repository) repository.Repository) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := wrap(db)

	env := &testEnv{
		repo:    repo,
		metrics: metrics.New(),
		clock:   &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		logs:    &bytes.Buffer{},
	}
	handler := slog.NewTextHandler(env.logs, &slog.HandlerOptions{Level: slog.LevelDebug})
	env.services = NewServiceContainer(Dependencies{
		Repo:    repo,
		Logger:  logging.NewSlogLogger(slog.New(handler)),
		Metrics: env.metrics,
		Settings: Settings{
			MaxDuration:       12 * time.Hour,
			QueryTimeout:      5 * time.Second,
			WriteTimeout:      5 * time.Second,
			Location:          time.UTC,
			WeekStart:         time.Monday,
			DisplayWeekStart:  time.Sunday,
			OvertimeThreshold: decimal.NewFromInt(40),
			PeriodPolicy:      period.MonthlyPolicy(1),
			Now:               env.clock.Now,
		},
	})

	catalog := env.services.CatalogService
	addProject := func(code, name string, billable bool, leave domain.LeaveKind) int64 {
		p, err := catalog.AddProject(ctx, domain.Project{Code: code, Name: name, Billable: billable, Leave: leave})
		require.NoError(t, err)
		return p.ID
	}
	env.dev = addProject("dev", "Dev", true, domain.LeaveNone)
	env.admin = addProject("admin", "Admin", false, domain.LeaveNone)
	env.vacation = addProject("vacation", "Vacation", false, domain.LeavePaid)
	env.unpaid = addProject("unpaid", "Unpaid", false, domain.LeaveUnpaid)

	coding, err := catalog.AddActivity(ctx, domain.Activity{Code: "code", Name: "Coding", Billable: true})
	require.NoError(t, err)
	meeting, err := catalog.AddActivity(ctx, domain.Activity{Code: "meet", Name: "Meeting", Billable: false})
	require.NoError(t, err)
	env.coding, env.meeting = coding.ID, meeting.ID

	return env
}

// userLockRecorder notes every user lock taken inside a transaction
type userLockRecorder struct {
	repository.Repository
	mu     *sync.Mutex
	locked *[]int64
}

// noWaitCounter counts transactions that refuse to wait for other writers
type noWaitCounter struct {
	repository.Repository
	calls int
}

func (c *noWaitCounter) WithTxNoWait(ctx context.Context, fn func(repository.Repository) error) error {
	c.calls++
	return c.Repository.WithTxNoWait(ctx, fn)
}

func newUserLockRecorder(repo repository.Repository) *userLockRecorder {
	return &userLockRecorder{Repository: repo, mu: &sync.Mutex{}, locked: &[]int64{}}
}

func (r *userLockRecorder) WithTx(ctx context.Context, fn func(repository.Repository) error) error {
	return r.Repository.WithTx(ctx, func(tx repository.Repository) error {
		return fn(&userLockRecorder{Repository: tx, mu: r.mu, locked: r.locked})
	})
}

func (r *userLockRecorder) LockUser(ctx context.Context, userID int64) error {
	r.mu.Lock()
	*r.locked = append(*r.locked, userID)
	r.mu.Unlock()
	return r.Repository.LockUser(ctx, userID)
}

func (r *userLockRecorder) Locked() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), *r.locked...)
}

// at returns an instant on 2024-03-dd in UTC
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

// addEntry stores a closed entry, moving the clock past its end first
func (env *testEnv) addEntry(t *testing.T, userID, projectID, activityID int64, start, end time.Time) *domain.ClockEntry {
	t.Helper()
	if env.clock.Now().Before(end) {
		env.clock.Set(end.Add(time.Hour))
	}
	entry, err := env.services.EntryService.AddEntry(context.Background(), EntryInput{
		UserID:     userID,
		ProjectID:  projectID,
		ActivityID: activityID,
		Start:      start,
		End:        end,
	})
	require.NoError(t, err)
	return entry
}
