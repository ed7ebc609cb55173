package services

import (
	"context"
	"fmt"
	"time"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/lock"
	"timesheet/internal/repository"
)

// entryServiceImpl implements the EntryService interface
type entryServiceImpl struct {
	*base
	users *lock.KeyedMutex
}

// NewEntryService creates a new EntryService instance
func NewEntryService(deps Dependencies) EntryService {
	return newEntryService(newBase(deps), lock.NewKeyedMutex())
}

func newEntryService(b *base, users *lock.KeyedMutex) *entryServiceImpl {
	return &entryServiceImpl{base: b, users: users}
}

// AddEntry stores a closed entry entered by hand
func (s *entryServiceImpl) AddEntry(ctx context.Context, input EntryInput) (*domain.ClockEntry, error) {
	unlock := s.users.Lock(input.UserID)
	defer unlock()

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	entry := domain.NewClockEntry(input.UserID, input.ProjectID)
	now := s.now()
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockUser(ctx, input.UserID); err != nil {
			return err
		}
		catalog, err := s.loadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		if err := checkReferences(catalog, input); err != nil {
			return err
		}

		applyInput(entry, input)
		if entry.EndTime == nil {
			return errors.NewInvalidInputError("end", "", "a manual entry needs an end time")
		}
		entry.Recompute(now)
		return s.save(ctx, tx, s.validator(tx, catalog), entry, now, false)
	})
	s.observe(ctx, "entry_add", input.UserID, err)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "entry added", "user", entry.UserID, "entry", entry.ID, "hours", entry.Hours.String())
	return entry, nil
}

// EditEntry replaces the times, project, activity and comments of a stored entry.
// Entries that are no longer editable, or that fall in a locked period, can only
// be changed with override.
func (s *entryServiceImpl) EditEntry(ctx context.Context, id int64, input EntryInput, override bool) (*domain.ClockEntry, error) {
	existing, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.users.Lock(existing.UserID)
	defer unlock()

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var entry *domain.ClockEntry
	now := s.now()
	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockUser(ctx, existing.UserID); err != nil {
			return err
		}
		row, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		entry = s.entries.FromDatabase(*row)

		catalog, err := s.loadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		input.UserID = entry.UserID
		if err := checkReferences(catalog, input); err != nil {
			return err
		}

		applyInput(entry, input)
		entry.Recompute(now)
		return s.save(ctx, tx, s.validator(tx, catalog), entry, now, override)
	})
	s.observe(ctx, "entry_edit", existing.UserID, err)
	if err != nil {
		return nil, err
	}
	if override {
		s.log.Warn(ctx, "entry edited with override", "user", entry.UserID, "entry", entry.ID)
	} else {
		s.log.Info(ctx, "entry edited", "user", entry.UserID, "entry", entry.ID)
	}
	return entry, nil
}

// SetStatus moves an entry through review. Invoiced status is only set by invoicing.
func (s *entryServiceImpl) SetStatus(ctx context.Context, id int64, status domain.EntryStatus) (*domain.ClockEntry, error) {
	if !status.IsValid() || status == domain.StatusInvoiced {
		return nil, errors.NewInvalidInputError("status", status, "must be unverified, verified, approved or not-invoiced")
	}

	existing, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.users.Lock(existing.UserID)
	defer unlock()

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var entry *domain.ClockEntry
	now := s.now()
	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockUser(ctx, existing.UserID); err != nil {
			return err
		}
		row, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		entry = s.entries.FromDatabase(*row)
		if entry.IsOpen() {
			return errors.NewInvalidInputError("entry", id, "an open entry cannot be reviewed")
		}
		if entry.Status == domain.StatusInvoiced {
			return errors.NewLockedPeriodError("Invoiced entries cannot change status.", entry.StartTime, *entry.EndTime)
		}

		catalog, err := s.loadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		entry.Status = status
		// review changes are not edits, so locks do not apply
		return s.save(ctx, tx, s.validator(tx, catalog), entry, now, true)
	})
	s.observe(ctx, "entry_status", existing.UserID, err)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "entry status changed", "entry", id, "status", string(status))
	return entry, nil
}

// GetEntry retrieves an entry by its ID
func (s *entryServiceImpl) GetEntry(ctx context.Context, id int64) (*domain.ClockEntry, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	row, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := s.entries.FromDatabase(*row)
	if entry.IsOpen() {
		entry.Recompute(s.now())
	}
	return entry, nil
}

// ListEntries returns the closed entries matching the query, ordered by end time
func (s *entryServiceImpl) ListEntries(ctx context.Context, query EntryQuery) ([]*domain.ClockEntry, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	filter := repository.EntryFilter{
		UserID:    query.UserID,
		ProjectID: query.ProjectID,
		EndFrom:   query.From,
		EndTo:     query.To,
	}
	for _, status := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(status))
	}

	rows, err := s.repo.SearchEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.entries.FromDatabaseSlice(derefAll(rows)), nil
}

func checkReferences(catalog *domain.Catalog, input EntryInput) error {
	if _, ok := catalog.Project(input.ProjectID); !ok {
		return errors.NewNotFoundError("project", fmt.Sprintf("%d", input.ProjectID))
	}
	if input.ActivityID != 0 {
		if _, ok := catalog.Activity(input.ActivityID); !ok {
			return errors.NewNotFoundError("activity", fmt.Sprintf("%d", input.ActivityID))
		}
	}
	if input.SecondsPaused < 0 {
		return errors.NewInvalidInputError("seconds_paused", input.SecondsPaused, "cannot be negative")
	}
	return nil
}

// applyInput copies the editable fields onto e. A zero End leaves the end unchanged.
func applyInput(e *domain.ClockEntry, input EntryInput) {
	e.ProjectID = input.ProjectID
	e.ActivityID = input.ActivityID
	e.StartTime = input.Start.Truncate(time.Second)
	if !input.End.IsZero() {
		end := input.End.Truncate(time.Second)
		e.EndTime = &end
	}
	e.SecondsPaused = input.SecondsPaused
	e.Comments = input.Comments
	e.Writedown = input.Writedown
}
