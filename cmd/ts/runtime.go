package main

import (
	"context"
	"fmt"

	"timesheet/internal/cli"
	"timesheet/internal/config"
	"timesheet/internal/logging"
	"timesheet/internal/metrics"
	"timesheet/internal/services"
)

// buildRuntime opens the configured repository and wires the services around it
func buildRuntime(ctx context.Context, cfg *config.Config) (*cli.Runtime, error) {
	logger := logging.New(logging.Options{
		Format:  cfg.Application.LogFormat,
		Verbose: cfg.Application.Verbose,
	})

	settings, err := cli.NewSettings(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := config.CreateRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
	}
	logger.Debug(ctx, "database opened", "driver", cfg.Database.Driver, "path", cfg.GetDatabasePath())

	m := metrics.New()
	container := services.NewServiceContainer(services.Dependencies{
		Repo:     repo,
		Logger:   logger.With("user", cfg.Application.User),
		Metrics:  m,
		Settings: settings,
	})

	return &cli.Runtime{
		Services: container,
		Metrics:  m,
		Close:    repo.Close,
	}, nil
}
