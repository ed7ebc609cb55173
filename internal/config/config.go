package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"timesheet/internal/period"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration options for the timesheet engine
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Time        TimeConfig        `yaml:"time"`
	Validation  ValidationConfig  `yaml:"validation"`
	Period      PeriodConfig      `yaml:"period"`
	Week        WeekConfig        `yaml:"week"`
	Payroll     PayrollConfig     `yaml:"payroll"`
	Application ApplicationConfig `yaml:"application"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver         string        `yaml:"driver" env:"TS_DB_DRIVER"`
	Dir            string        `yaml:"dir" env:"TS_DB_DIR"`
	Filename       string        `yaml:"filename" env:"TS_DB_FILENAME"`
	DSN            string        `yaml:"dsn" env:"TS_DB_DSN"`
	QueryTimeout   time.Duration `yaml:"query_timeout" env:"TS_DB_QUERY_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"TS_DB_WRITE_TIMEOUT"`
	DirPermissions uint32        `yaml:"dir_permissions" env:"TS_DB_DIR_PERMISSIONS"`
}

// TimeConfig holds time zone and formatting configuration
type TimeConfig struct {
	Zone          string `yaml:"zone" env:"TS_TIME_ZONE"`
	DisplayFormat string `yaml:"display_format" env:"TS_TIME_DISPLAY_FORMAT"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	MaxDuration time.Duration `yaml:"max_duration" env:"TS_VALIDATION_MAX_DURATION"`
}

// PeriodConfig describes the accounting period policy
type PeriodConfig struct {
	// Mode is monthly, fixed, semi-monthly or none
	Mode       string `yaml:"mode" env:"TS_PERIOD_MODE"`
	MonthStart int    `yaml:"month_start" env:"TS_PERIOD_MONTH_START"`
	Anchor     string `yaml:"anchor" env:"TS_PERIOD_ANCHOR"`
	LengthDays int    `yaml:"length_days" env:"TS_PERIOD_LENGTH_DAYS"`
}

// WeekConfig holds the week conventions
type WeekConfig struct {
	// Start begins the weeks used for overtime and week buckets
	Start string `yaml:"start" env:"TS_WEEK_START"`
	// DisplayStart begins the weeks shown on timesheets
	DisplayStart string `yaml:"display_start" env:"TS_WEEK_DISPLAY_START"`
}

// PayrollConfig holds payroll configuration
type PayrollConfig struct {
	OvertimeThreshold string `yaml:"overtime_threshold" env:"TS_PAYROLL_OVERTIME_THRESHOLD"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout     time.Duration `yaml:"timeout" env:"TS_APP_TIMEOUT"`
	Verbose     bool          `yaml:"verbose" env:"TS_APP_VERBOSE"`
	LogFormat   string        `yaml:"log_format" env:"TS_LOG_FORMAT"`
	MetricsFile string        `yaml:"metrics_file" env:"TS_METRICS_FILE"`
	User        int64         `yaml:"user" env:"TS_USER"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".ts")

	return &Config{
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			Dir:            defaultDBDir,
			Filename:       "ts.db",
			QueryTimeout:   10 * time.Second,
			WriteTimeout:   5 * time.Second,
			DirPermissions: 0755,
		},
		Time: TimeConfig{
			Zone:          "Local",
			DisplayFormat: "2006-01-02 15:04:05",
		},
		Validation: ValidationConfig{
			MaxDuration: 12 * time.Hour,
		},
		Period: PeriodConfig{
			Mode:       string(period.KindCalendarMonth),
			MonthStart: 1,
			LengthDays: 14,
		},
		Week: WeekConfig{
			Start:        "monday",
			DisplayStart: "sunday",
		},
		Payroll: PayrollConfig{
			OvertimeThreshold: "40",
		},
		Application: ApplicationConfig{
			Timeout:   60 * time.Second,
			Verbose:   false,
			LogFormat: "text",
			User:      1,
		},
	}
}

// GetDatabasePath returns the full path to the SQLite database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return c.Database.QueryTimeout
}

// GetWriteTimeout returns the database write timeout
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Database.WriteTimeout
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	switch c.Time.Zone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Time.Zone)
}

// WeekStart returns the weekday that begins overtime and bucket weeks
func (c *Config) WeekStart() time.Weekday {
	d, err := period.ParseWeekday(c.Week.Start)
	if err != nil {
		return time.Monday
	}
	return d
}

// DisplayWeekStart returns the weekday that begins timesheet weeks
func (c *Config) DisplayWeekStart() time.Weekday {
	d, err := period.ParseWeekday(c.Week.DisplayStart)
	if err != nil {
		return time.Sunday
	}
	return d
}

// OvertimeThreshold returns the weekly overtime threshold in hours
func (c *Config) OvertimeThreshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.Payroll.OvertimeThreshold)
	if err != nil {
		return decimal.NewFromInt(40)
	}
	return d
}

// PeriodPolicy builds the configured period policy. It returns nil when no
// policy is configured; the period calculator reports that as an error.
func (c *Config) PeriodPolicy() *period.Policy {
	switch strings.ToLower(c.Period.Mode) {
	case string(period.KindCalendarMonth):
		return period.MonthlyPolicy(c.Period.MonthStart)
	case string(period.KindFixedLength):
		anchor, err := time.ParseInLocation(period.DateLayout, c.Period.Anchor, time.UTC)
		if err != nil {
			anchor = time.Time{}
		}
		return period.FixedPolicy(anchor, c.Period.LengthDays)
	case string(period.KindSemiMonthly):
		return period.SemiMonthlyPolicy()
	default:
		return nil
	}
}

// LoadFromFile merges the YAML file at path over the current values
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "config", Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "config", Message: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}
	return nil
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if driver := os.Getenv("TS_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dir := os.Getenv("TS_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TS_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if dsn := os.Getenv("TS_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if timeout := os.Getenv("TS_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if timeout := os.Getenv("TS_DB_WRITE_TIMEOUT"); timeout != "" {
		c.Database.WriteTimeout = ParseDurationWithFallback(timeout, c.Database.WriteTimeout)
	}
	if perms := os.Getenv("TS_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	// Time configuration
	if zone := os.Getenv("TS_TIME_ZONE"); zone != "" {
		c.Time.Zone = zone
	}
	if format := os.Getenv("TS_TIME_DISPLAY_FORMAT"); format != "" {
		c.Time.DisplayFormat = format
	}

	// Validation configuration
	if maxDur := os.Getenv("TS_VALIDATION_MAX_DURATION"); maxDur != "" {
		c.Validation.MaxDuration = ParseDurationWithFallback(maxDur, c.Validation.MaxDuration)
	}

	// Period configuration
	if mode := os.Getenv("TS_PERIOD_MODE"); mode != "" {
		c.Period.Mode = mode
	}
	if start := os.Getenv("TS_PERIOD_MONTH_START"); start != "" {
		c.Period.MonthStart = ParseIntWithFallback(start, c.Period.MonthStart)
	}
	if anchor := os.Getenv("TS_PERIOD_ANCHOR"); anchor != "" {
		c.Period.Anchor = anchor
	}
	if length := os.Getenv("TS_PERIOD_LENGTH_DAYS"); length != "" {
		c.Period.LengthDays = ParseIntWithFallback(length, c.Period.LengthDays)
	}

	// Week configuration
	if start := os.Getenv("TS_WEEK_START"); start != "" {
		c.Week.Start = start
	}
	if start := os.Getenv("TS_WEEK_DISPLAY_START"); start != "" {
		c.Week.DisplayStart = start
	}

	// Payroll configuration
	if threshold := os.Getenv("TS_PAYROLL_OVERTIME_THRESHOLD"); threshold != "" {
		c.Payroll.OvertimeThreshold = threshold
	}

	// Application configuration
	if timeout := os.Getenv("TS_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("TS_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}
	if format := os.Getenv("TS_LOG_FORMAT"); format != "" {
		c.Application.LogFormat = format
	}
	if path := os.Getenv("TS_METRICS_FILE"); path != "" {
		c.Application.MetricsFile = path
	}
	if user := os.Getenv("TS_USER"); user != "" {
		if id, err := strconv.ParseInt(user, 10, 64); err == nil {
			c.Application.User = id
		}
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Dir == "" {
			return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
		}
		if c.Database.Filename == "" {
			return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return &ConfigError{Field: "database.dsn", Message: "postgres driver requires a DSN"}
		}
	default:
		return &ConfigError{Field: "database.driver", Message: fmt.Sprintf("unknown driver %q", c.Database.Driver)}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Database.WriteTimeout <= 0 {
		return &ConfigError{Field: "database.write_timeout", Message: "write timeout must be positive"}
	}

	// Validate time configuration
	if _, err := c.Location(); err != nil {
		return &ConfigError{Field: "time.zone", Message: fmt.Sprintf("unknown time zone %q", c.Time.Zone)}
	}
	if c.Time.DisplayFormat == "" {
		return &ConfigError{Field: "time.display_format", Message: "display format cannot be empty"}
	}

	// Validate validation configuration
	if c.Validation.MaxDuration <= 0 {
		return &ConfigError{Field: "validation.max_duration", Message: "max duration must be positive"}
	}

	// Validate period configuration
	if mode := strings.ToLower(c.Period.Mode); mode != "" && mode != "none" {
		policy := c.PeriodPolicy()
		if policy == nil {
			return &ConfigError{Field: "period.mode", Message: fmt.Sprintf("unknown period mode %q", c.Period.Mode)}
		}
		if reason := policy.Validate(); reason != "" {
			return &ConfigError{Field: "period", Message: reason}
		}
	}

	// Validate week configuration
	if _, err := period.ParseWeekday(c.Week.Start); err != nil {
		return &ConfigError{Field: "week.start", Message: err.Error()}
	}
	if _, err := period.ParseWeekday(c.Week.DisplayStart); err != nil {
		return &ConfigError{Field: "week.display_start", Message: err.Error()}
	}

	// Validate payroll configuration
	if d, err := decimal.NewFromString(c.Payroll.OvertimeThreshold); err != nil || !d.IsPositive() {
		return &ConfigError{Field: "payroll.overtime_threshold", Message: "overtime threshold must be a positive number of hours"}
	}

	// Validate application configuration
	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}
	switch strings.ToLower(c.Application.LogFormat) {
	case "text", "json":
	default:
		return &ConfigError{Field: "application.log_format", Message: "log format must be text or json"}
	}
	if c.Application.User <= 0 {
		return &ConfigError{Field: "application.user", Message: "user id must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
