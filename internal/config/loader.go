package config

import (
	"os"
	"strconv"
	"time"
)

// ConfigFileEnv names the variable pointing at an optional YAML config file
const ConfigFileEnv = "TS_CONFIG"

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the YAML file named by TS_CONFIG, if any
// 3. Override with environment variables
// 4. Override with command line flags (handled by cobra)
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := l.config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	if overrides != nil && overrides.ConfigFile != nil && *overrides.ConfigFile != "" {
		if err := l.config.LoadFromFile(*overrides.ConfigFile); err != nil {
			return nil, err
		}
	}

	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		l.applyOverrides(config, overrides)
	}

	// Re-validate after applying overrides
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	ConfigFile *string

	// Database overrides
	DBDriver       *string
	DBDir          *string
	DBFilename     *string
	DBDSN          *string
	DBQueryTimeout *time.Duration
	DBWriteTimeout *time.Duration

	// Time overrides
	TimeZone   *string
	TimeFormat *string

	// Validation overrides
	MaxDuration *time.Duration

	// Period overrides
	PeriodMode       *string
	PeriodMonthStart *int

	// Week overrides
	WeekStart        *string
	WeekDisplayStart *string

	// Payroll overrides
	OvertimeThreshold *string

	// Application overrides
	Timeout     *time.Duration
	Verbose     *bool
	LogFormat   *string
	MetricsFile *string
	User        *int64
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	// Database overrides
	if overrides.DBDriver != nil {
		config.Database.Driver = *overrides.DBDriver
	}
	if overrides.DBDir != nil {
		config.Database.Dir = *overrides.DBDir
	}
	if overrides.DBFilename != nil {
		config.Database.Filename = *overrides.DBFilename
	}
	if overrides.DBDSN != nil {
		config.Database.DSN = *overrides.DBDSN
	}
	if overrides.DBQueryTimeout != nil {
		config.Database.QueryTimeout = *overrides.DBQueryTimeout
	}
	if overrides.DBWriteTimeout != nil {
		config.Database.WriteTimeout = *overrides.DBWriteTimeout
	}

	// Time overrides
	if overrides.TimeZone != nil {
		config.Time.Zone = *overrides.TimeZone
	}
	if overrides.TimeFormat != nil {
		config.Time.DisplayFormat = *overrides.TimeFormat
	}

	// Validation overrides
	if overrides.MaxDuration != nil {
		config.Validation.MaxDuration = *overrides.MaxDuration
	}

	// Period overrides
	if overrides.PeriodMode != nil {
		config.Period.Mode = *overrides.PeriodMode
	}
	if overrides.PeriodMonthStart != nil {
		config.Period.MonthStart = *overrides.PeriodMonthStart
	}

	// Week overrides
	if overrides.WeekStart != nil {
		config.Week.Start = *overrides.WeekStart
	}
	if overrides.WeekDisplayStart != nil {
		config.Week.DisplayStart = *overrides.WeekDisplayStart
	}

	if overrides.OvertimeThreshold != nil {
		config.Payroll.OvertimeThreshold = *overrides.OvertimeThreshold
	}

	// Application overrides
	if overrides.Timeout != nil {
		config.Application.Timeout = *overrides.Timeout
	}
	if overrides.Verbose != nil {
		config.Application.Verbose = *overrides.Verbose
	}
	if overrides.LogFormat != nil {
		config.Application.LogFormat = *overrides.LogFormat
	}
	if overrides.MetricsFile != nil {
		config.Application.MetricsFile = *overrides.MetricsFile
	}
	if overrides.User != nil {
		config.Application.User = *overrides.User
	}
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}