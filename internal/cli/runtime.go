package cli

import (
	"context"
	"time"

	"timesheet/internal/config"
	"timesheet/internal/metrics"
	"timesheet/internal/services"
)

// Runtime is what a command runs against
type Runtime struct {
	Services *services.ServiceContainer
	Metrics  *metrics.Metrics
	// Close releases the repository. May be nil.
	Close func() error
}

// Bootstrap builds a Runtime for a resolved configuration
type Bootstrap func(ctx context.Context, cfg *config.Config) (*Runtime, error)

// NewSettings maps the configuration onto the service settings
func NewSettings(cfg *config.Config) (services.Settings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return services.Settings{}, err
	}
	return services.Settings{
		MaxDuration:       cfg.Validation.MaxDuration,
		QueryTimeout:      cfg.GetQueryTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		Location:          loc,
		WeekStart:         cfg.WeekStart(),
		DisplayWeekStart:  cfg.DisplayWeekStart(),
		OvertimeThreshold: cfg.OvertimeThreshold(),
		PeriodPolicy:      cfg.PeriodPolicy(),
		Now:               func() time.Time { return timeNow() },
	}, nil
}
