package config

import (
	"context"
	"fmt"
	"os"

	"timesheet/internal/repository"
	"timesheet/internal/repository/postgres"
	"timesheet/internal/repository/sqlite"
)

// CreateRepository opens the repository selected by the configuration
func CreateRepository(ctx context.Context, config *Config) (repository.Repository, error) {
	switch config.Database.Driver {
	case DriverPostgres:
		repo, err := postgres.New(ctx, config.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil
	default:
		if err := os.MkdirAll(config.Database.Dir, os.FileMode(config.Database.DirPermissions)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		repo, err := sqlite.New(ctx, config.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil
	}
}

// CreateTestRepository creates an in-memory repository for testing
func CreateTestRepository(ctx context.Context) (repository.Repository, error) {
	repo, err := sqlite.NewMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	return repo, nil
}
