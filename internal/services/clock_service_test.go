package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/repository"
	"timesheet/internal/validation"
)

func TestClockService_Lifecycle(t *testing.T) {
	// Arrange
	env := setupServices(t)
	clock := env.services.ClockService
	ctx := context.Background()

	// Act
	entry, err := clock.ClockIn(ctx, 1, env.dev)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOpenUnpaused, entry.State())

	env.clock.Set(at(4, 10, 0))
	entry, err = clock.Pause(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOpenPaused, entry.State())

	env.clock.Set(at(4, 10, 15))
	_, err = clock.Unpause(ctx, 1)
	require.NoError(t, err)

	env.clock.Set(at(4, 17, 0))
	entry, err = clock.ClockOut(ctx, 1, env.coding, "sprint work")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.StateClosed, entry.State())
	assert.Equal(t, int64(900), entry.SecondsPaused)
	assert.Equal(t, "7.75", entry.Hours.String())
	assert.Equal(t, "sprint work", entry.Comments)

	stored, err := env.services.EntryService.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "7.75", stored.Hours.String())
	assert.Equal(t, env.coding, stored.ActivityID)

	active, err := clock.Active(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ClockOperations.WithLabelValues("clock_in", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ClockOperations.WithLabelValues("clock_out", "success")))
}

func TestClockService_ClosesOpenEntryAfterMonthApproval(t *testing.T) {
	// Arrange
	env := setupServices(t)
	clock := env.services.ClockService
	ctx := context.Background()

	open, err := clock.ClockIn(ctx, 1, env.dev)
	require.NoError(t, err)
	earlier := env.addEntry(t, 1, env.dev, env.coding, at(1, 9, 0), at(1, 12, 0))
	_, err = env.services.EntryService.SetStatus(ctx, earlier.ID, domain.StatusApproved)
	require.NoError(t, err)

	// Act
	env.clock.Set(at(4, 11, 0))
	_, pauseErr := clock.Pause(ctx, 1)
	env.clock.Set(at(4, 12, 0))
	closed, closeErr := clock.ClockOut(ctx, 1, env.coding, "")

	// Assert
	require.NoError(t, pauseErr)
	require.NoError(t, closeErr)
	assert.Equal(t, open.ID, closed.ID)
	assert.Equal(t, domain.StateClosed, closed.State())

	active, err := clock.Active(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = clock.ClockIn(ctx, 1, env.dev)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeLockedPeriod), "new entries stay locked: %v", err)
}

func TestServices_TakeUserLockInsideWrites(t *testing.T) {
	// Arrange
	var recorder *userLockRecorder
	env := setupServicesOver(t, func(repo repository.Repository) repository.Repository {
		recorder = newUserLockRecorder(repo)
		return recorder
	})
	ctx := context.Background()

	// Act
	_, err := env.services.ClockService.ClockIn(ctx, 7, env.dev)
	require.NoError(t, err)
	env.clock.Set(at(4, 10, 0))
	_, err = env.services.ClockService.ClockOut(ctx, 7, env.coding, "")
	require.NoError(t, err)
	entry := env.addEntry(t, 8, env.dev, env.coding, at(1, 9, 0), at(1, 10, 0))
	_, err = env.services.EntryService.SetStatus(ctx, entry.ID, domain.StatusVerified)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []int64{7, 7, 8, 8}, recorder.Locked(), "should lock the owner in every write transaction")
}

func TestClockService_Toggle(t *testing.T) {
	// Arrange
	env := setupServices(t)
	clock := env.services.ClockService
	ctx := context.Background()
	_, err := clock.ClockIn(ctx, 1, env.dev)
	require.NoError(t, err)

	// Act
	env.clock.Set(at(4, 9, 30))
	paused, err := clock.Toggle(ctx, 1)
	require.NoError(t, err)
	env.clock.Set(at(4, 9, 40))
	resumed, err := clock.Toggle(ctx, 1)
	require.NoError(t, err)

	// Assert
	assert.True(t, paused.IsPaused())
	assert.False(t, resumed.IsPaused())
	assert.Equal(t, int64(600), resumed.SecondsPaused)
}

func TestClockService_ClockInClosesActiveEntry(t *testing.T) {
	// Arrange
	env := setupServices(t)
	clock := env.services.ClockService
	ctx := context.Background()
	first, err := clock.ClockIn(ctx, 1, env.dev)
	require.NoError(t, err)

	// Act
	env.clock.Set(at(4, 11, 0))
	second, err := clock.ClockIn(ctx, 1, env.admin)

	// Assert
	require.NoError(t, err)
	closed, err := env.services.EntryService.GetEntry(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, at(4, 10, 59).Add(59*time.Second), closed.EndTime.UTC())
	assert.Equal(t, "2", closed.Hours.String())

	active, err := clock.Active(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, env.admin, active.ProjectID)
}

func TestClockService_Errors(t *testing.T) {
	tests := []struct {
		name      string
		act       func(env *testEnv) error
		errorType errors.ErrorType
	}{
		{
			name: "should refuse to clock out without an open entry",
			act: func(env *testEnv) error {
				_, err := env.services.ClockService.ClockOut(context.Background(), 1, 0, "")
				return err
			},
			errorType: errors.ErrorTypeAlreadyClosed,
		},
		{
			name: "should refuse to pause without an open entry",
			act: func(env *testEnv) error {
				_, err := env.services.ClockService.Pause(context.Background(), 1)
				return err
			},
			errorType: errors.ErrorTypeAlreadyClosed,
		},
		{
			name: "should reject an unknown project",
			act: func(env *testEnv) error {
				_, err := env.services.ClockService.ClockIn(context.Background(), 1, 999)
				return err
			},
			errorType: errors.ErrorTypeNotFound,
		},
		{
			name: "should reject an unknown activity on clock out",
			act: func(env *testEnv) error {
				if _, err := env.services.ClockService.ClockIn(context.Background(), 1, env.dev); err != nil {
					return err
				}
				_, err := env.services.ClockService.ClockOut(context.Background(), 1, 999, "")
				return err
			},
			errorType: errors.ErrorTypeNotFound,
		},
		{
			name: "should refuse to clock in inside a locked period",
			act: func(env *testEnv) error {
				if err := env.services.CloseoutService.LockPeriod(context.Background(), nil, at(1, 0, 0), at(31, 0, 0)); err != nil {
					return err
				}
				_, err := env.services.ClockService.ClockIn(context.Background(), 1, env.dev)
				return err
			},
			errorType: errors.ErrorTypeLockedPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := setupServices(t)

			// Act
			err := tt.act(env)

			// Assert
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, tt.errorType), "unexpected error: %v", err)
		})
	}
}

func TestClockService_LockedPeriodIsCounted(t *testing.T) {
	// Arrange
	env := setupServices(t)
	ctx := context.Background()
	userID := int64(1)
	require.NoError(t, env.services.CloseoutService.LockPeriod(ctx, &userID, at(1, 0, 0), at(5, 0, 0)))

	// Act
	_, err := env.services.ClockService.ClockIn(ctx, userID, env.dev)

	// Assert
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ValidationFailures.WithLabelValues("locked_period")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ClockOperations.WithLabelValues("clock_in", "rejected")))

	assert.Contains(t, env.logs.String(), `msg="entry rejected" operation=clock_in user=1 reason="locked period" start=2024-03-04T09:00:00.000Z`)

	_, err = env.services.ClockService.ClockIn(ctx, 2, env.dev)
	assert.NoError(t, err, "should only lock the named user")
}

func TestClockService_ConcurrentClockIns(t *testing.T) {
	// Arrange
	env := setupServices(t)
	clock := env.services.ClockService
	ctx := context.Background()
	const attempts = 8

	// Act
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = clock.ClockIn(ctx, 1, env.dev)
		}(i)
	}
	wg.Wait()

	// Assert
	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, validation.IsValidationError(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	open, err := env.repo.ActiveEntries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 1, "should never leave more than one open entry")
}
