package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/lock"
	"timesheet/internal/metrics"
	"timesheet/internal/repository"
	"timesheet/internal/validation"
)

// clockServiceImpl implements the ClockService interface
type clockServiceImpl struct {
	*base
	users *lock.KeyedMutex
}

// NewClockService creates a new ClockService instance
func NewClockService(deps Dependencies) ClockService {
	return newClockService(newBase(deps), lock.NewKeyedMutex())
}

func newClockService(b *base, users *lock.KeyedMutex) *clockServiceImpl {
	return &clockServiceImpl{base: b, users: users}
}

// ClockIn opens a new entry on the project. An entry that is still open is
// closed one second before the new one starts.
func (c *clockServiceImpl) ClockIn(ctx context.Context, userID, projectID int64) (*domain.ClockEntry, error) {
	var entry *domain.ClockEntry
	err := c.mutate(ctx, "clock_in", userID, func(ctx context.Context, tx repository.Repository, v *validation.EntryValidator, catalog *domain.Catalog, now time.Time) error {
		if _, ok := catalog.Project(projectID); !ok {
			return errors.NewNotFoundError("project", fmt.Sprintf("%d", projectID))
		}

		active, err := c.activeEntry(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active != nil {
			if err := active.ClockOut(active.ActivityID, active.Comments, now.Add(-time.Second)); err != nil {
				return err
			}
			if err := c.save(ctx, tx, v, active, now, false); err != nil {
				return err
			}
			c.log.Info(ctx, "closed previous entry", "user", userID, "entry", active.ID, "hours", active.Hours.String())
		}

		entry = domain.NewClockEntry(userID, projectID)
		if err := entry.ClockIn(userID, projectID, now); err != nil {
			return err
		}
		return c.save(ctx, tx, v, entry, now, false)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info(ctx, "clocked in", "user", userID, "project", projectID, "entry", entry.ID)
	return entry, nil
}

// Pause pauses the open entry
func (c *clockServiceImpl) Pause(ctx context.Context, userID int64) (*domain.ClockEntry, error) {
	return c.transition(ctx, "pause", userID, (*domain.ClockEntry).Pause)
}

// Unpause resumes the open entry
func (c *clockServiceImpl) Unpause(ctx context.Context, userID int64) (*domain.ClockEntry, error) {
	return c.transition(ctx, "unpause", userID, (*domain.ClockEntry).Unpause)
}

// Toggle flips the open entry between paused and running
func (c *clockServiceImpl) Toggle(ctx context.Context, userID int64) (*domain.ClockEntry, error) {
	return c.transition(ctx, "toggle", userID, (*domain.ClockEntry).Toggle)
}

// ClockOut closes the open entry with the given activity and comments
func (c *clockServiceImpl) ClockOut(ctx context.Context, userID, activityID int64, comments string) (*domain.ClockEntry, error) {
	var entry *domain.ClockEntry
	err := c.mutate(ctx, "clock_out", userID, func(ctx context.Context, tx repository.Repository, v *validation.EntryValidator, catalog *domain.Catalog, now time.Time) error {
		if activityID != 0 {
			if _, ok := catalog.Activity(activityID); !ok {
				return errors.NewNotFoundError("activity", fmt.Sprintf("%d", activityID))
			}
		}

		active, err := c.activeEntry(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active == nil {
			return errors.NewAlreadyClosedError(0)
		}
		if err := active.ClockOut(activityID, comments, now); err != nil {
			return err
		}
		entry = active
		return c.save(ctx, tx, v, entry, now, false)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info(ctx, "clocked out", "user", userID, "entry", entry.ID, "hours", entry.Hours.String())
	return entry, nil
}

// Active returns the user's open entry with hours refreshed to now
func (c *clockServiceImpl) Active(ctx context.Context, userID int64) (*domain.ClockEntry, error) {
	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	entry, err := c.activeEntry(ctx, c.repo, userID)
	if err != nil || entry == nil {
		return nil, err
	}
	entry.Recompute(c.now())
	return entry, nil
}

func (c *clockServiceImpl) transition(ctx context.Context, operation string, userID int64, apply func(*domain.ClockEntry, time.Time)) (*domain.ClockEntry, error) {
	var entry *domain.ClockEntry
	err := c.mutate(ctx, operation, userID, func(ctx context.Context, tx repository.Repository, v *validation.EntryValidator, _ *domain.Catalog, now time.Time) error {
		active, err := c.activeEntry(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active == nil {
			return errors.NewAlreadyClosedError(0)
		}
		apply(active, now)
		entry = active
		return c.save(ctx, tx, v, entry, now, false)
	})
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, operation, "user", userID, "entry", entry.ID, "state", entry.State().String())
	return entry, nil
}

// mutateFunc runs inside the user's lock and a single transaction
type mutateFunc func(ctx context.Context, tx repository.Repository, v *validation.EntryValidator, catalog *domain.Catalog, now time.Time) error

// mutate serialises fn with every other write for the user
func (c *clockServiceImpl) mutate(ctx context.Context, operation string, userID int64, fn mutateFunc) error {
	unlock := c.users.Lock(userID)
	defer unlock()

	ctx, cancel := c.writeContext(ctx)
	defer cancel()

	now := c.now()
	err := c.repo.WithTx(ctx, func(tx repository.Repository) error {
		// other processes sharing the database
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		catalog, err := c.loadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		return fn(ctx, tx, c.validator(tx, catalog), catalog, now)
	})
	c.observe(ctx, operation, userID, err)
	return err
}

func (c *clockServiceImpl) activeEntry(ctx context.Context, repo repository.Repository, userID int64) (*domain.ClockEntry, error) {
	rows, err := repo.ActiveEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		c.log.Warn(ctx, "user has more than one open entry", "user", userID, "count", len(rows))
	}
	return c.entries.FromDatabase(*rows[0]), nil
}

// validator builds an entry validator bound to the transaction
func (b *base) validator(tx repository.Repository, catalog *domain.Catalog) *validation.EntryValidator {
	return validation.NewEntryValidator(b.settings.MaxDuration, catalog, repoLocks{repo: tx, location: b.settings.Location})
}

// save validates the entry against the user's other entries and stores it
func (b *base) save(ctx context.Context, tx repository.Repository, v *validation.EntryValidator, e *domain.ClockEntry, now time.Time, override bool) error {
	others, err := b.overlapCandidates(ctx, tx, e)
	if err != nil {
		return err
	}
	if err := v.Validate(ctx, e, others, validation.EntryOptions{Now: now, Override: override}); err != nil {
		return err
	}

	row := b.entries.ToDatabase(e)
	if e.ID == 0 {
		if err := tx.CreateEntry(ctx, &row); err != nil {
			return err
		}
		e.ID = row.ID
		return nil
	}
	return tx.UpdateEntry(ctx, &row)
}

// observe records the outcome of a write in logs and metrics
func (b *base) observe(ctx context.Context, operation string, userID int64, err error) {
	switch {
	case err == nil:
		b.metrics.ObserveClock(operation, metrics.ResultSuccess)
	case validation.IsValidationError(err):
		b.metrics.ObserveClock(operation, metrics.ResultRejected)
		var ve *validation.ValidationError
		stderrors.As(err, &ve)
		for _, check := range ve.Checks() {
			b.metrics.ObserveValidationFailure(string(check))
		}
		if fe, ok := ve.First(); ok {
			b.log.Info(ctx, "entry rejected", "operation", operation, "user", userID, "field", fe.Field, "reason", fe.Message)
		}
	case errors.IsErrorType(err, errors.ErrorTypeLockedPeriod):
		b.metrics.ObserveClock(operation, metrics.ResultRejected)
		b.metrics.ObserveValidationFailure("locked_period")
		args := []any{"operation", operation, "user", userID, "reason", "locked period"}
		if appErr, ok := errors.AsAppError(err); ok {
			for _, key := range []string{"start", "end"} {
				if v, ok := appErr.GetContext(key); ok {
					args = append(args, key, v)
				}
			}
		}
		b.log.Info(ctx, "entry rejected", args...)
	case errors.ShouldLogError(err):
		b.metrics.ObserveClock(operation, metrics.ResultError)
		b.log.Error(ctx, "operation failed", "operation", operation, "user", userID, "error", err)
	default:
		b.metrics.ObserveClock(operation, metrics.ResultRejected)
		b.log.Debug(ctx, "operation refused", "operation", operation, "user", userID, "error", err)
	}
}
