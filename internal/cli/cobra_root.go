package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"timesheet/internal/config"
)

// Command is a handler invoked by a cobra subcommand
type Command interface {
	Execute(ctx context.Context, args []string) error
}

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd       *cobra.Command
	bootstrap Bootstrap
	config    *config.Config
	runtime   *Runtime
}

// NewRootCommand creates the ts command tree. bootstrap builds the services
// once flags and environment are resolved.
func NewRootCommand(bootstrap Bootstrap) *RootCommand {
	root := &RootCommand{bootstrap: bootstrap}

	root.cmd = &cobra.Command{
		Use:   "ts",
		Short: "Timesheet clock and period accounting",
		Long: `ts records clock entries and totals them into pay periods.

Clock in on a project, pause and unpause while you work, and clock out
with the activity you did. Entries can also be added and edited by hand,
reviewed, locked and invoiced. Reports fold entries into weekly
timesheets, hour grids, period summaries, overtime and payroll.

CONFIGURATION:
  Settings are read from defaults, then the YAML file named by TS_CONFIG
  or --config, then TS_* environment variables, then flags.

  Database Configuration:
    TS_DB_DRIVER                 sqlite or postgres (default: sqlite)
    TS_DB_DIR                    Database directory (default: ~/.ts)
    TS_DB_FILENAME               Database filename (default: ts.db)
    TS_DB_DSN                    Postgres connection string
    TS_DB_QUERY_TIMEOUT          Query timeout (default: 10s)
    TS_DB_WRITE_TIMEOUT          Write timeout (default: 5s)

  Time Configuration:
    TS_TIME_ZONE                 Zone dates are read in (default: Local)
    TS_TIME_DISPLAY_FORMAT       Time format (default: 2006-01-02 15:04:05)

  Period Configuration:
    TS_PERIOD_MODE               monthly, fixed, semi-monthly or none (default: monthly)
    TS_PERIOD_MONTH_START        First day of a monthly period (default: 1)
    TS_PERIOD_ANCHOR             First day of any fixed period (YYYY-MM-DD)
    TS_PERIOD_LENGTH_DAYS        Fixed period length (default: 14)
    TS_WEEK_START                First day of report weeks (default: monday)
    TS_WEEK_DISPLAY_START        First day of timesheet weeks (default: sunday)

  Payroll Configuration:
    TS_VALIDATION_MAX_DURATION   Longest allowed entry (default: 12h)
    TS_PAYROLL_OVERTIME_THRESHOLD Weekly hours before overtime (default: 40)

  Application Configuration:
    TS_APP_TIMEOUT               Command timeout (default: 60s)
    TS_APP_VERBOSE               Debug logging (default: false)
    TS_LOG_FORMAT                text or json (default: text)
    TS_METRICS_FILE              Write Prometheus metrics to this file
    TS_USER                      User the commands act for (default: 1)

GETTING HELP:
  ts [command] --help            Get help for any specific command`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.prepare(cmd.Context())
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()
	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// SetArgs sets the arguments, mainly for tests
func (r *RootCommand) SetArgs(args []string) {
	r.cmd.SetArgs(args)
}

// Command exposes the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Close flushes metrics and releases the runtime built for the command
func (r *RootCommand) Close() error {
	if r.runtime == nil {
		return nil
	}
	var err error
	if r.config != nil {
		err = r.runtime.Metrics.WriteTextfile(r.config.Application.MetricsFile)
	}
	if r.runtime.Close != nil {
		if closeErr := r.runtime.Close(); err == nil {
			err = closeErr
		}
	}
	r.runtime = nil
	return err
}

// prepare resolves configuration and builds the services
func (r *RootCommand) prepare(ctx context.Context) error {
	cfg, err := config.NewLoader().LoadWithOverrides(r.overrides())
	if err != nil {
		return err
	}
	r.config = cfg

	if r.bootstrap == nil {
		return fmt.Errorf("no runtime configured")
	}
	runtime, err := r.bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	r.runtime = runtime
	return nil
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("config", "", "YAML config file (overrides TS_CONFIG)")

	// Database configuration
	flags.String("db-driver", "", "Database driver, sqlite or postgres (overrides TS_DB_DRIVER)")
	flags.String("db-dir", "", "Database directory (overrides TS_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TS_DB_FILENAME)")
	flags.String("db-dsn", "", "Postgres connection string (overrides TS_DB_DSN)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides TS_DB_QUERY_TIMEOUT)")
	flags.Duration("db-write-timeout", 0, "Database write timeout (overrides TS_DB_WRITE_TIMEOUT)")

	// Time configuration
	flags.String("time-zone", "", "Zone dates are read in (overrides TS_TIME_ZONE)")
	flags.String("time-format", "", "Time display format (overrides TS_TIME_DISPLAY_FORMAT)")

	// Validation configuration
	flags.Duration("max-duration", 0, "Longest allowed entry (overrides TS_VALIDATION_MAX_DURATION)")

	// Period configuration
	flags.String("period-mode", "", "Pay period mode (overrides TS_PERIOD_MODE)")
	flags.Int("period-month-start", 0, "First day of a monthly period (overrides TS_PERIOD_MONTH_START)")
	flags.String("week-start", "", "First day of report weeks (overrides TS_WEEK_START)")
	flags.String("week-display-start", "", "First day of timesheet weeks (overrides TS_WEEK_DISPLAY_START)")

	// Payroll configuration
	flags.String("overtime-threshold", "", "Weekly hours before overtime (overrides TS_PAYROLL_OVERTIME_THRESHOLD)")

	// Application configuration
	flags.Duration("app-timeout", 0, "Command timeout (overrides TS_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Enable debug logging (overrides TS_APP_VERBOSE)")
	flags.String("log-format", "", "Log format, text or json (overrides TS_LOG_FORMAT)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file (overrides TS_METRICS_FILE)")
	flags.Int64("user", 0, "User the command acts for (overrides TS_USER)")
}

// overrides collects the flags that were set on the command line
func (r *RootCommand) overrides() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	o := &config.ConfigOverrides{}

	o.ConfigFile = changedString(flags, "config")
	o.DBDriver = changedString(flags, "db-driver")
	o.DBDir = changedString(flags, "db-dir")
	o.DBFilename = changedString(flags, "db-filename")
	o.DBDSN = changedString(flags, "db-dsn")
	o.DBQueryTimeout = changedDuration(flags, "db-query-timeout")
	o.DBWriteTimeout = changedDuration(flags, "db-write-timeout")
	o.TimeZone = changedString(flags, "time-zone")
	o.TimeFormat = changedString(flags, "time-format")
	o.MaxDuration = changedDuration(flags, "max-duration")
	o.PeriodMode = changedString(flags, "period-mode")
	if flags.Changed("period-month-start") {
		v, _ := flags.GetInt("period-month-start")
		o.PeriodMonthStart = &v
	}
	o.WeekStart = changedString(flags, "week-start")
	o.WeekDisplayStart = changedString(flags, "week-display-start")
	o.OvertimeThreshold = changedString(flags, "overtime-threshold")
	o.Timeout = changedDuration(flags, "app-timeout")
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		o.Verbose = &v
	}
	o.LogFormat = changedString(flags, "log-format")
	o.MetricsFile = changedString(flags, "metrics-file")
	if flags.Changed("user") {
		v, _ := flags.GetInt64("user")
		o.User = &v
	}
	return o
}

func changedString(flags *pflag.FlagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

func changedDuration(flags *pflag.FlagSet, name string) *time.Duration {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetDuration(name)
	return &v
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil && r.config.Application.Timeout > 0 {
		return r.config.Application.Timeout
	}
	return 60 * time.Second
}

// run wraps a handler in a cobra RunE with the application timeout
func (r *RootCommand) run(handler func(app *App) Command) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
		defer cancel()

		app := NewApp(r.runtime.Services, r.config, cmd.OutOrStdout())
		return handler(app).Execute(ctx, args)
	}
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	r.addClockCommands()
	r.addEntryCommands()
	r.addCatalogCommands()
	r.addReportCommands()
	r.addCloseoutCommands()
}

func (r *RootCommand) addClockCommands() {
	clockInCmd := &cobra.Command{
		Use:   "clock-in <project>",
		Short: "Start an entry on a project",
		Long:  "Start a clock entry on the project, given by id or code. An entry that is still open is clocked out one second earlier.",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run(func(app *App) Command { return NewClockInCommand(app) }),
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the open entry",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewPauseCommand(app) }),
	}

	unpauseCmd := &cobra.Command{
		Use:   "unpause",
		Short: "Resume the paused entry",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewUnpauseCommand(app) }),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Pause or resume the open entry",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewToggleCommand(app) }),
	}

	var activity, comments string
	clockOutCmd := &cobra.Command{
		Use:   "clock-out [comment]",
		Short: "Close the open entry",
		Long: `Close the open entry. A paused entry is unpaused first so the pause is credited.

Examples:
  ts clock-out --activity dev
  ts clock-out --activity meet "sprint planning"`,
		RunE: r.run(func(app *App) Command { return NewClockOutCommand(app, activity, comments) }),
	}
	clockOutCmd.Flags().StringVarP(&activity, "activity", "a", "", "Activity id or code")
	clockOutCmd.Flags().StringVarP(&comments, "comment", "m", "", "Comment for the entry")

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the open entry",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewActiveCommand(app) }),
	}

	r.cmd.AddCommand(clockInCmd, pauseCmd, unpauseCmd, toggleCmd, clockOutCmd, activeCmd)
}

func entryFlagSet(cmd *cobra.Command, f *EntryFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.Project, "project", "p", "", "Project id or code")
	flags.StringVarP(&f.Activity, "activity", "a", "", "Activity id or code")
	flags.StringVar(&f.Start, "start", "", "Start time, YYYY-MM-DD HH:MM or HH:MM today")
	flags.StringVar(&f.End, "end", "", "End time, YYYY-MM-DD HH:MM or HH:MM today")
	flags.DurationVar(&f.Paused, "paused", 0, "Pause taken inside the entry")
	flags.StringVarP(&f.Comments, "comment", "m", "", "Comment for the entry")
	flags.BoolVar(&f.Writedown, "writedown", false, "Mark the entry as written down")
}

func (r *RootCommand) addEntryCommands() {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Add, edit and review entries",
	}

	var addFlags EntryFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a closed entry",
		Long: `Record an entry after the fact.

Example:
  ts entry add -p dev -a code --start "2024-03-04 09:00" --end "2024-03-04 12:30"`,
		Args: cobra.NoArgs,
		RunE: r.run(func(app *App) Command { return NewEntryAddCommand(app, addFlags) }),
	}
	entryFlagSet(addCmd, &addFlags)

	var editFlags EntryFlags
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry",
		Long:  "Change the fields given by flags. Verified entries and locked periods need --override.",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run(func(app *App) Command { return NewEntryEditCommand(app, editFlags) }),
	}
	entryFlagSet(editCmd, &editFlags)
	editCmd.Flags().BoolVar(&editFlags.Override, "override", false, "Edit entries in locked periods")

	statusCmd := &cobra.Command{
		Use:   "status <status> <id>...",
		Short: "Set the review status of entries",
		Long:  "Set the review status: unverified, verified, approved or not-invoiced. Invoicing is done with ts invoice.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  r.run(func(app *App) Command { return NewEntryStatusCommand(app) }),
	}

	var listFlags EntryListFlags
	listCmd := &cobra.Command{
		Use:   "list [time]",
		Short: "List closed entries",
		Long: `List closed entries, optionally only those that ended within the given time.

Time filters support: 30m, 2h, 1d, 2w, 3mo, 1y`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.run(func(app *App) Command { return NewEntryListCommand(app, listFlags) }),
	}
	listCmd.Flags().StringVarP(&listFlags.Project, "project", "p", "", "Only this project")
	listCmd.Flags().StringSliceVar(&listFlags.Statuses, "status", nil, "Only these statuses")
	listCmd.Flags().BoolVar(&listFlags.AllUsers, "all-users", false, "List every user's entries")

	entryCmd.AddCommand(addCmd, editCmd, statusCmd, listCmd)
	r.cmd.AddCommand(entryCmd)
}

func (r *RootCommand) addCatalogCommands() {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	var projectFlags CatalogFlags
	projectAddCmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add a project",
		Args:  cobra.MinimumNArgs(2),
		RunE:  r.run(func(app *App) Command { return NewProjectAddCommand(app, projectFlags) }),
	}
	projectAddCmd.Flags().BoolVar(&projectFlags.Billable, "billable", false, "Hours are billable")
	projectAddCmd.Flags().StringVar(&projectFlags.Leave, "leave", "none", "Leave kind: none, paid or unpaid")
	projectAddCmd.Flags().StringSliceVar(&projectFlags.Activities, "activities", nil, "Activity codes the project is restricted to (default any)")
	projectListCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewProjectListCommand(app) }),
	}
	projectCmd.AddCommand(projectAddCmd, projectListCmd)

	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
	}
	var activityFlags CatalogFlags
	activityAddCmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an activity",
		Args:  cobra.MinimumNArgs(2),
		RunE:  r.run(func(app *App) Command { return NewActivityAddCommand(app, activityFlags) }),
	}
	activityAddCmd.Flags().BoolVar(&activityFlags.Billable, "billable", false, "Hours are billable")
	activityListCmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewActivityListCommand(app) }),
	}
	activityCmd.AddCommand(activityAddCmd, activityListCmd)

	r.cmd.AddCommand(projectCmd, activityCmd)
}

func reportFlagSet(cmd *cobra.Command, f *ReportFlags) {
	cmd.Flags().StringVar(&f.From, "from", "", "First date, YYYY-MM-DD (default: start of the current period)")
	cmd.Flags().StringVar(&f.To, "to", "", "Last date, YYYY-MM-DD (default: end of the current period)")
}

func (r *RootCommand) addReportCommands() {
	var offset int
	periodCmd := &cobra.Command{
		Use:   "period [date]",
		Short: "Show the pay period containing a date",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.run(func(app *App) Command { return NewPeriodCommand(app, offset) }),
	}
	periodCmd.Flags().IntVar(&offset, "back", 0, "Periods before the one containing the date")

	weekCmd := &cobra.Command{
		Use:   "week [date]",
		Short: "Show the week containing a date",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.run(func(app *App) Command { return NewWeekCommand(app) }),
	}

	var reportFlags ReportFlags
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Hours grid by group and date",
		Long: `Hours grid with a row per group and a column per date bucket.

Examples:
  ts report --group-by project --granularity week
  ts report --all-users --group-by user --include billable,non-billable`,
		Args: cobra.NoArgs,
		RunE: r.run(func(app *App) Command { return NewReportCommand(app, reportFlags) }),
	}
	reportFlagSet(reportCmd, &reportFlags)
	reportCmd.Flags().StringVar(&reportFlags.GroupBy, "group-by", "project", "user, project or activity")
	reportCmd.Flags().StringVar(&reportFlags.Granularity, "granularity", "week", "day, week, month or year")
	reportCmd.Flags().StringVar(&reportFlags.Include, "include", "", "Hour kinds: billable, non-billable, paid-leave, unpaid-leave, writedown, all")
	reportCmd.Flags().BoolVar(&reportFlags.AllUsers, "all-users", false, "Report every user")

	var timesheetFlags ReportFlags
	timesheetCmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Weekly timesheet with daily project totals",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewTimesheetCommand(app, timesheetFlags) }),
	}
	reportFlagSet(timesheetCmd, &timesheetFlags)

	var summaryFlags ReportFlags
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Hour totals for a range",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewSummaryCommand(app, summaryFlags) }),
	}
	reportFlagSet(summaryCmd, &summaryFlags)
	summaryCmd.Flags().StringVar(&summaryFlags.Include, "include", "", "Hour kinds to total")

	var overtimeFlags ReportFlags
	overtimeCmd := &cobra.Command{
		Use:   "overtime",
		Short: "Weekly overtime in a pay period",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewOvertimeCommand(app, overtimeFlags) }),
	}
	reportFlagSet(overtimeCmd, &overtimeFlags)

	var payrollFlags ReportFlags
	payrollCmd := &cobra.Command{
		Use:   "payroll",
		Short: "Payroll totals for every user",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewPayrollCommand(app, payrollFlags) }),
	}
	reportFlagSet(payrollCmd, &payrollFlags)
	payrollCmd.Flags().StringVar(&payrollFlags.Include, "include", "", "Hour kinds to total")

	r.cmd.AddCommand(periodCmd, weekCmd, reportCmd, timesheetCmd, summaryCmd, overtimeCmd, payrollCmd)
}

func (r *RootCommand) addCloseoutCommands() {
	var from, to string
	var everyone bool
	lockCmd := &cobra.Command{
		Use:   "lock-period",
		Short: "Close a range of dates to edits",
		Long:  "Close the dates [--from, --to] to edits. Without dates the previous pay period is locked.",
		Args:  cobra.NoArgs,
		RunE:  r.run(func(app *App) Command { return NewLockPeriodCommand(app, from, to, everyone) }),
	}
	lockCmd.Flags().StringVar(&from, "from", "", "First locked date, YYYY-MM-DD")
	lockCmd.Flags().StringVar(&to, "to", "", "Last locked date, YYYY-MM-DD")
	lockCmd.Flags().BoolVar(&everyone, "all-users", false, "Lock the range for every user")

	invoiceCmd := &cobra.Command{
		Use:   "invoice <project> <entry id>...",
		Short: "Invoice closed entries of a project",
		Args:  cobra.MinimumNArgs(2),
		RunE:  r.run(func(app *App) Command { return NewInvoiceCommand(app) }),
	}

	r.cmd.AddCommand(lockCmd, invoiceCmd)
}
