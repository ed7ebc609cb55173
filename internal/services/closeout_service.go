package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"timesheet/internal/errors"
	"timesheet/internal/lock"
	"timesheet/internal/repository"
)

// closeoutServiceImpl implements the CloseoutService interface
type closeoutServiceImpl struct {
	*base
	entryLocks *lock.KeyedMutex
}

// NewCloseoutService creates a new CloseoutService instance
func NewCloseoutService(deps Dependencies) CloseoutService {
	return newCloseoutService(newBase(deps))
}

func newCloseoutService(b *base) *closeoutServiceImpl {
	return &closeoutServiceImpl{base: b, entryLocks: lock.NewKeyedMutex()}
}

// LockPeriod records a closed-out range
func (s *closeoutServiceImpl) LockPeriod(ctx context.Context, userID *int64, start, end time.Time) error {
	if !start.Before(end) {
		return errors.NewInvalidInputError("end", end, "must be after the start of the locked period")
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	if err := s.repo.CreateLockedPeriod(ctx, &repository.LockedPeriod{UserID: userID, Start: start, End: end}); err != nil {
		return err
	}

	scope := "everyone"
	if userID != nil {
		scope = fmt.Sprintf("user %d", *userID)
	}
	s.log.Info(ctx, "period locked", "scope", scope, "start", start, "end", end)
	return nil
}

// Invoice attaches closed, uninvoiced entries of one project to a new invoice.
// It never waits: if any entry is held by another closeout the whole batch
// fails with a lock contention error and nothing is written.
func (s *closeoutServiceImpl) Invoice(ctx context.Context, projectID int64, entryIDs []int64) (string, error) {
	ids := uniqueIDs(entryIDs)
	if len(ids) == 0 {
		return "", errors.NewInvalidInputError("entries", entryIDs, "at least one entry is required")
	}

	unlock, ok := s.entryLocks.TryLockAll(ids)
	if !ok {
		s.metrics.ObserveLockContention()
		s.log.Warn(ctx, "invoice aborted, entries busy", "project", projectID, "entries", len(ids))
		return "", errors.NewLockContentionError("entries", nil)
	}
	defer unlock()

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	invoiceID := uuid.NewString()
	err := s.repo.WithTxNoWait(ctx, func(tx repository.Repository) error {
		rows, err := tx.LockEntriesForInvoice(ctx, ids)
		if err != nil {
			return err
		}
		if len(rows) != len(ids) {
			return errors.NewNotFoundError("entries", missingIDs(ids, rows))
		}

		for _, row := range rows {
			entry := s.entries.FromDatabase(*row)
			switch {
			case entry.IsOpen():
				return errors.NewInvalidInputError("entry", entry.ID, "open entries cannot be invoiced")
			case entry.ProjectID != projectID:
				return errors.NewInvalidInputError("entry", entry.ID, fmt.Sprintf("belongs to project %d", entry.ProjectID))
			case entry.InvoiceID != "":
				return errors.NewInvalidInputError("entry", entry.ID, "is already invoiced")
			}
		}
		return tx.CreateInvoice(ctx, invoiceID, projectID, s.now(), ids)
	})
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeLockContention) {
			s.metrics.ObserveLockContention()
			s.log.Warn(ctx, "invoice aborted, entries locked in the database", "project", projectID)
		}
		return "", err
	}

	s.log.Info(ctx, "invoice created", "invoice", invoiceID, "project", projectID, "entries", len(ids))
	return invoiceID, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingIDs(ids []int64, rows []*repository.Entry) string {
	found := make(map[int64]bool, len(rows))
	for _, row := range rows {
		found[row.ID] = true
	}
	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return fmt.Sprint(missing)
}
