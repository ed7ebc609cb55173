package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/config"
	"timesheet/internal/metrics"
	"timesheet/internal/services"
)

type cliEnv struct {
	t         *testing.T
	now       time.Time
	metrics   *metrics.Metrics
	bootstrap Bootstrap
}

// setupCLI runs commands against one in-memory database with a fixed clock
// starting Monday 2024-03-04 09:00 UTC.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("TS_CONFIG", "")
	t.Setenv("TS_TIME_ZONE", "UTC")
	t.Setenv("TS_PERIOD_MODE", "monthly")
	t.Setenv("TS_PERIOD_MONTH_START", "1")
	t.Setenv("TS_WEEK_START", "monday")
	t.Setenv("TS_USER", "1")
	t.Setenv("TS_METRICS_FILE", "")

	repo, err := config.CreateTestRepository(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	env := &cliEnv{
		t:       t,
		now:     time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		metrics: metrics.New(),
	}
	original := timeNow
	timeNow = func() time.Time { return env.now }
	t.Cleanup(func() { timeNow = original })

	env.bootstrap = func(ctx context.Context, cfg *config.Config) (*Runtime, error) {
		settings, err := NewSettings(cfg)
		if err != nil {
			return nil, err
		}
		container := services.NewServiceContainer(services.Dependencies{Repo: repo, Metrics: env.metrics, Settings: settings})
		return &Runtime{Services: container, Metrics: env.metrics}, nil
	}
	return env
}

func (e *cliEnv) setNow(day, hour, min int) {
	e.now = time.Date(2024, 3, day, hour, min, 0, 0, time.UTC)
}

// run executes one ts invocation on a fresh command tree
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	root := NewRootCommand(e.bootstrap)
	var out bytes.Buffer
	root.Command().SetOut(&out)
	root.Command().SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	require.NoError(e.t, root.Close())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "ts %v", args)
	return out
}

func (e *cliEnv) seedCatalog() {
	e.mustRun("project", "add", "dev", "Development", "--billable")
	e.mustRun("project", "add", "vac", "Vacation", "--leave", "paid")
	e.mustRun("activity", "add", "code", "Coding", "--billable")
}

func TestCatalogCommands(t *testing.T) {
	// Arrange
	env := setupCLI(t)

	// Act
	added := env.mustRun("project", "add", "dev", "Development", "--billable")
	env.mustRun("activity", "add", "code", "Coding", "--billable")
	projects := env.mustRun("project", "list")
	activities := env.mustRun("activity", "list")
	_, dupErr := env.run("project", "add", "x", "")

	// Assert
	assert.Equal(t, "Added project 1: Development (dev)\n", added)
	assert.Regexp(t, `1\s+dev\s+Development\s+true\s+none`, projects)
	assert.Regexp(t, `1\s+code\s+Coding\s+true`, activities)
	assert.Error(t, dupErr)
}

func TestProjectAddCommand_Activities(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.mustRun("activity", "add", "code", "Coding", "--billable")
	env.mustRun("activity", "add", "meet", "Meeting")

	// Act
	env.mustRun("project", "add", "support", "Support", "--activities", "meet")
	projects := env.mustRun("project", "list")
	_, unknownErr := env.run("project", "add", "ops", "Operations", "--activities", "meet,sleep")

	// Assert
	assert.Regexp(t, `support\s+Support\s+false\s+none\s+Meeting`, projects)
	assert.Error(t, unknownErr)
}

func TestClockCommands_Lifecycle(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()

	// Act / Assert
	out := env.mustRun("clock-in", "dev")
	assert.Equal(t, "Clocked in on Development at 2024-03-04 09:00:00 (entry 1)\n", out)

	env.setNow(4, 9, 30)
	out = env.mustRun("pause")
	assert.Equal(t, "Entry 1 is paused (0:00:00 paused so far)\n", out)

	env.setNow(4, 9, 45)
	out = env.mustRun("toggle")
	assert.Equal(t, "Entry 1 is running (0:15:00 paused so far)\n", out)

	env.setNow(4, 11, 0)
	out = env.mustRun("active")
	assert.Equal(t, "Entry 1 on Development since 2024-03-04 09:00:00, running (1.75 hours)\n", out)

	out = env.mustRun("clock-out", "-a", "code", "-m", "sprint", "work")
	assert.Equal(t, "Clocked out of entry 1 at 2024-03-04 11:00:00: 1.75 hours\n", out)

	out = env.mustRun("active")
	assert.Equal(t, "Not clocked in\n", out)

	_, err := env.run("clock-out")
	require.Error(t, err)
	assert.Equal(t, "failed to clock out: no active entry to close", err.Error())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ClockOperations.WithLabelValues("clock_out", metrics.ResultSuccess)))
}

func TestClockCommands_ClockInClosesOpenEntry(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()
	env.mustRun("clock-in", "dev")
	env.setNow(4, 11, 0)

	// Act
	out := env.mustRun("clock-in", "vac")

	// Assert
	assert.Equal(t, "Clocked out of entry 1\nClocked in on Vacation at 2024-03-04 11:00:00 (entry 2)\n", out)
	list := env.mustRun("entry", "list")
	assert.Regexp(t, `1\s+1\s+Development\s+2024-03-04 09:00:00\s+2024-03-04 10:59:59\s+2\.00\s+unverified`, list)
}

func TestClockCommands_Errors(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "should reject an unknown project",
			args:     []string{"clock-in", "nope"},
			expected: "failed to clock in: project not found: nope",
		},
		{
			name:     "should reject pausing without an open entry",
			args:     []string{"pause"},
			expected: "failed to pause entry: no active entry to close",
		},
		{
			name:     "should reject an unknown activity",
			args:     []string{"clock-out", "-a", "nope"},
			expected: "failed to clock out: activity not found: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := env.run(tt.args...)

			// Assert
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestEntryCommands(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()
	env.setNow(4, 18, 0)

	// Act / Assert
	out := env.mustRun("entry", "add", "-p", "dev", "-a", "code", "--start", "2024-03-04 09:00", "--end", "2024-03-04 12:30")
	assert.Equal(t, "Added entry 1: 3.50 hours\n", out)

	_, err := env.run("entry", "add", "-p", "dev", "--start", "2024-03-04 12:00", "--end", "2024-03-04 13:00")
	require.Error(t, err)
	assert.Equal(t, "failed to add entry: Start time overlaps with Coding on Development from 09:00:00 to 12:30:00.", err.Error())

	_, err = env.run("entry", "add", "-p", "dev", "--start", "2024-03-04 13:00")
	require.Error(t, err)

	out = env.mustRun("entry", "edit", "1", "--end", "13:00", "--paused", "30m")
	assert.Equal(t, "Updated entry 1: 3.50 hours\n", out)

	out = env.mustRun("entry", "status", "verified", "1")
	assert.Equal(t, "Entry 1 is verified\n", out)

	_, err = env.run("entry", "edit", "1", "--comment", "late change")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to edit entry:")

	out = env.mustRun("entry", "edit", "1", "--comment", "late change", "--override")
	assert.Equal(t, "Updated entry 1: 3.50 hours\n", out)

	_, err = env.run("entry", "status", "invoiced", "1")
	require.Error(t, err)

	list := env.mustRun("entry", "list", "--status", "verified", "-p", "dev")
	assert.Regexp(t, `1\s+1\s+Development\s+2024-03-04 09:00:00\s+2024-03-04 13:00:00\s+3\.50\s+verified`, list)

	list = env.mustRun("entry", "list", "1h")
	assert.Equal(t, "No entries found\n", list)
}

func TestPeriodCommands(t *testing.T) {
	env := setupCLI(t)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "should show the monthly period containing a date",
			args:     []string{"period", "2024-03-15"},
			expected: "2024-03-01..2024-03-31 (31 days)\n",
		},
		{
			name:     "should step back one period",
			args:     []string{"period", "2024-03-15", "--back", "1"},
			expected: "2024-02-01..2024-02-29 (29 days)\n",
		},
		{
			name:     "should default to today",
			args:     []string{"period"},
			expected: "2024-03-01..2024-03-31 (31 days)\n",
		},
		{
			name:     "should honour a mid-month start day",
			args:     []string{"--period-month-start", "16", "period", "2024-03-15"},
			expected: "2024-02-16..2024-03-15 (29 days)\n",
		},
		{
			name:     "should show the week containing a date",
			args:     []string{"week", "2024-03-06"},
			expected: "2024-03-04..2024-03-10\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			out, err := env.run(tt.args...)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestPeriodCommand_Unconfigured(t *testing.T) {
	// Arrange
	env := setupCLI(t)

	// Act
	_, err := env.run("--period-mode", "none", "period")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compute period: period policy is not configured")
}

func TestReportCommands(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()
	env.setNow(6, 18, 0)
	env.mustRun("entry", "add", "-p", "dev", "-a", "code", "--start", "2024-03-04 09:00", "--end", "2024-03-04 17:00")
	env.mustRun("entry", "add", "-p", "dev", "--start", "2024-03-05 09:00", "--end", "2024-03-05 11:00")
	env.mustRun("entry", "add", "-p", "vac", "--start", "2024-03-06 09:00", "--end", "2024-03-06 17:00")

	t.Run("should total the current period", func(t *testing.T) {
		out := env.mustRun("summary")

		assert.Regexp(t, `Billable\s+8\.00`, out)
		assert.Regexp(t, `Non-billable\s+10\.00`, out)
		assert.Regexp(t, `Vacation\s+8\.00`, out)
		assert.Regexp(t, `Worked\s+10\.00`, out)
		assert.Regexp(t, `Total\s+18\.00`, out)
	})

	t.Run("should restrict the summary to billable hours", func(t *testing.T) {
		out := env.mustRun("summary", "--include", "billable")

		assert.Regexp(t, `Total\s+8\.00`, out)
	})

	t.Run("should lay out a daily grid", func(t *testing.T) {
		out := env.mustRun("report", "--from", "2024-03-04", "--to", "2024-03-06", "--granularity", "day")

		assert.Contains(t, out, "2024-03-04")
		assert.Contains(t, out, "2024-03-06")
		assert.Regexp(t, `Development\s+8\.00\s+2\.00\s+0\.00\s+10\.00\s+8\.00\s+2\.00`, out)
		assert.Regexp(t, `Totals\s+8\.00\s+2\.00\s+8\.00\s+18\.00`, out)
	})

	t.Run("should reject an unknown grouping", func(t *testing.T) {
		_, err := env.run("report", "--group-by", "team")

		assert.Error(t, err)
	})

	t.Run("should show the payroll rows", func(t *testing.T) {
		out := env.mustRun("payroll", "--from", "2024-03-01", "--to", "2024-03-31")

		assert.Regexp(t, `user 1\s+8\.00\s+2\.00\s+10\.00\s+8\.00\s+0\.00\s+18\.00\s+0\.00`, out)
		assert.Regexp(t, `Totals\s+8\.00\s+2\.00\s+10\.00\s+8\.00\s+0\.00\s+18\.00\s+0\.00`, out)
	})

	t.Run("should list the weeks of the overtime window", func(t *testing.T) {
		out := env.mustRun("overtime", "--from", "2024-03-01", "--to", "2024-03-31")

		assert.Regexp(t, `2024-03-04\s+10\.00\s+0\.00\s+true`, out)
		assert.Regexp(t, `Total\s+0\.00`, out)
	})

	t.Run("should print the display weeks", func(t *testing.T) {
		out := env.mustRun("timesheet", "--from", "2024-03-04", "--to", "2024-03-06")

		assert.Contains(t, out, "2024-03-03..2024-03-09")
		assert.Regexp(t, `Total\s+18\.00\s+8\.00\s+10\.00`, out)
	})

	t.Run("should reject an inverted range", func(t *testing.T) {
		_, err := env.run("summary", "--from", "2024-03-10", "--to", "2024-03-01")

		assert.Error(t, err)
	})
}

func TestCloseoutCommands(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()
	env.setNow(6, 18, 0)
	env.mustRun("entry", "add", "-p", "dev", "-a", "code", "--start", "2024-03-04 09:00", "--end", "2024-03-04 12:00")

	t.Run("should lock a range of dates", func(t *testing.T) {
		out := env.mustRun("lock-period", "--from", "2024-03-01", "--to", "2024-03-03")
		assert.Equal(t, "Locked 2024-03-01..2024-03-03\n", out)

		_, err := env.run("entry", "add", "-p", "dev", "--start", "2024-03-02 09:00", "--end", "2024-03-02 10:00")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add entry:")
	})

	t.Run("should invoice entries once", func(t *testing.T) {
		out := env.mustRun("invoice", "dev", "1")
		assert.Regexp(t, `^Invoice [0-9a-f-]{36}: 1 entries for Development\n$`, out)

		_, err := env.run("invoice", "dev", "1")
		assert.Error(t, err)

		summary := env.mustRun("summary", "--from", "2024-03-04", "--to", "2024-03-04")
		assert.Regexp(t, `Invoiced\s+3\.00`, summary)
		assert.Regexp(t, `Uninvoiced\s+0\.00`, summary)
	})

	t.Run("should reject a malformed entry id", func(t *testing.T) {
		_, err := env.run("invoice", "dev", "abc")
		assert.Error(t, err)
	})
}

func TestRootCommand_Flags(t *testing.T) {
	// Arrange
	env := setupCLI(t)
	env.seedCatalog()
	env.mustRun("clock-in", "dev")

	t.Run("should act for the user given by flag", func(t *testing.T) {
		out := env.mustRun("--user", "2", "active")
		assert.Equal(t, "Not clocked in\n", out)
	})

	t.Run("should reject an invalid configuration", func(t *testing.T) {
		_, err := env.run("--log-format", "xml", "active")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_format")
	})

	t.Run("should write the metrics textfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ts.prom")

		env.mustRun("--metrics-file", path, "active")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "timesheet_clock_operations_total")
	})
}

func TestNewSettings(t *testing.T) {
	// Arrange
	cfg := config.NewConfig()
	cfg.Time.Zone = "UTC"
	cfg.Payroll.OvertimeThreshold = "37.5"

	// Act
	settings, err := NewSettings(cfg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, time.UTC, settings.Location)
	assert.Equal(t, time.Monday, settings.WeekStart)
	assert.Equal(t, time.Sunday, settings.DisplayWeekStart)
	assert.Equal(t, "37.5", settings.OvertimeThreshold.String())
	assert.NotNil(t, settings.PeriodPolicy)
	assert.Equal(t, cfg.Validation.MaxDuration, settings.MaxDuration)
	assert.NotNil(t, settings.Now)
}
