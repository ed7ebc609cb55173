package services

import (
	"context"
	"fmt"
	"strings"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/repository"
	"timesheet/internal/validation"
)

// catalogServiceImpl implements the CatalogService interface
type catalogServiceImpl struct {
	*base
	validator *validation.CatalogValidator
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(deps Dependencies) CatalogService {
	return newCatalogService(newBase(deps))
}

func newCatalogService(b *base) *catalogServiceImpl {
	return &catalogServiceImpl{base: b, validator: validation.NewCatalogValidator()}
}

// AddProject validates and stores a project
func (s *catalogServiceImpl) AddProject(ctx context.Context, project domain.Project) (*domain.Project, error) {
	project.Code = strings.TrimSpace(project.Code)
	project.Name = strings.TrimSpace(project.Name)
	if project.Leave == "" {
		project.Leave = domain.LeaveNone
	}
	if err := s.validator.ValidateProject(project); err != nil {
		return nil, err
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	row := s.catalogs.ProjectToDatabase(project)
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if len(row.ActivityIDs) > 0 {
			catalog, err := s.loadCatalog(ctx, tx)
			if err != nil {
				return err
			}
			for _, id := range row.ActivityIDs {
				if _, ok := catalog.Activity(id); !ok {
					return errors.NewNotFoundError("activity", fmt.Sprintf("%d", id))
				}
			}
		}
		return tx.CreateProject(ctx, &row)
	})
	if err != nil {
		return nil, err
	}
	created := s.catalogs.ProjectFromDatabase(row)
	s.log.Info(ctx, "project added", "project", created.ID, "code", created.Code, "leave", string(created.Leave))
	return &created, nil
}

// ListProjects returns every project
func (s *catalogServiceImpl) ListProjects(ctx context.Context) ([]domain.Project, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, len(rows))
	for i, row := range rows {
		projects[i] = s.catalogs.ProjectFromDatabase(*row)
	}
	return projects, nil
}

// AddActivity validates and stores an activity
func (s *catalogServiceImpl) AddActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error) {
	activity.Code = strings.TrimSpace(activity.Code)
	activity.Name = strings.TrimSpace(activity.Name)
	if err := s.validator.ValidateActivity(activity); err != nil {
		return nil, err
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	row := s.catalogs.ActivityToDatabase(activity)
	if err := s.repo.CreateActivity(ctx, &row); err != nil {
		return nil, err
	}
	created := s.catalogs.ActivityFromDatabase(row)
	s.log.Info(ctx, "activity added", "activity", created.ID, "code", created.Code)
	return &created, nil
}

// ListActivities returns every activity
func (s *catalogServiceImpl) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.repo.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	activities := make([]domain.Activity, len(rows))
	for i, row := range rows {
		activities[i] = s.catalogs.ActivityFromDatabase(*row)
	}
	return activities, nil
}

// Catalog indexes every project and activity
func (s *catalogServiceImpl) Catalog(ctx context.Context) (*domain.Catalog, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	return s.loadCatalog(ctx, s.repo)
}
