package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
	"timesheet/internal/validation"
)

func TestEntryService_AddEntry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    func(env *testEnv) EntryInput
		field    string
		errType  validation.ValidationErrorType
		contains string
	}{
		{
			name: "should reject an entry overlapping stored work",
			input: func(env *testEnv) EntryInput {
				return EntryInput{UserID: 1, ProjectID: env.dev, ActivityID: env.coding, Start: at(4, 11, 0), End: at(4, 13, 0)}
			},
			field:    "start_time",
			errType:  validation.ErrorTypeOverlap,
			contains: "Start time overlaps with Coding on Dev from 09:00:00 to 12:00:00.",
		},
		{
			name: "should reject an end in the future",
			input: func(env *testEnv) EntryInput {
				return EntryInput{UserID: 1, ProjectID: env.dev, Start: at(4, 17, 0), End: at(4, 19, 0)}
			},
			field:   "end_time",
			errType: validation.ErrorTypeFutureTime,
		},
		{
			name: "should reject an end before the start",
			input: func(env *testEnv) EntryInput {
				return EntryInput{UserID: 1, ProjectID: env.dev, Start: at(3, 10, 0), End: at(3, 9, 0)}
			},
			field:    "end_time",
			errType:  validation.ErrorTypeInvalidRange,
			contains: "Ending time must exceed the starting time",
		},
		{
			name: "should reject more than twelve hours",
			input: func(env *testEnv) EntryInput {
				return EntryInput{UserID: 1, ProjectID: env.dev, Start: at(2, 6, 0), End: at(2, 19, 0)}
			},
			field:   "end_time",
			errType: validation.ErrorTypeTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := setupServices(t)
			env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))
			env.clock.Set(at(4, 18, 0))

			// Act
			_, err := env.services.EntryService.AddEntry(context.Background(), tt.input(env))

			// Assert
			var ve *validation.ValidationError
			require.True(t, stderrors.As(err, &ve), "unexpected error: %v", err)
			fe, ok := ve.First()
			require.True(t, ok)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.errType, fe.Type)
			if tt.contains != "" {
				assert.Contains(t, fe.Message, tt.contains)
			}
		})
	}
}

func TestEntryService_AddEntry_RequiresEnd(t *testing.T) {
	env := setupServices(t)

	_, err := env.services.EntryService.AddEntry(context.Background(), EntryInput{UserID: 1, ProjectID: env.dev, Start: at(4, 8, 0)})

	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
}

func TestEntryService_RestrictedProjectActivities(t *testing.T) {
	// Arrange
	env := setupServices(t)
	ctx := context.Background()
	support, err := env.services.CatalogService.AddProject(ctx, domain.Project{Code: "support", Name: "Support", Activities: []int64{env.meeting}})
	require.NoError(t, err)
	env.clock.Set(at(4, 18, 0))

	t.Run("should reject an entry with an activity the project does not allow", func(t *testing.T) {
		// Act
		_, err := env.services.EntryService.AddEntry(ctx, EntryInput{UserID: 1, ProjectID: support.ID, ActivityID: env.coding, Start: at(4, 9, 0), End: at(4, 10, 0)})

		// Assert
		var ve *validation.ValidationError
		require.True(t, stderrors.As(err, &ve), "unexpected error: %v", err)
		fe, _ := ve.First()
		assert.Equal(t, validation.ErrorTypeNotAllowed, fe.Type)
		assert.Equal(t, "Coding is not allowed for this project. Please choose Meeting", fe.Message)
	})

	t.Run("should accept an allowed activity", func(t *testing.T) {
		_, err := env.services.EntryService.AddEntry(ctx, EntryInput{UserID: 1, ProjectID: support.ID, ActivityID: env.meeting, Start: at(4, 9, 0), End: at(4, 10, 0)})

		assert.NoError(t, err)
	})

	t.Run("should keep the entry open when clocking out with a disallowed activity", func(t *testing.T) {
		// Arrange
		env.clock.Set(at(4, 11, 0))
		_, err := env.services.ClockService.ClockIn(ctx, 2, support.ID)
		require.NoError(t, err)
		env.clock.Set(at(4, 12, 0))

		// Act
		_, err = env.services.ClockService.ClockOut(ctx, 2, env.coding, "")

		// Assert
		assert.True(t, validation.IsValidationError(err))
		active, activeErr := env.services.ClockService.Active(ctx, 2)
		require.NoError(t, activeErr)
		assert.NotNil(t, active)
	})

	t.Run("should refuse a project restricted to an unknown activity", func(t *testing.T) {
		_, err := env.services.CatalogService.AddProject(ctx, domain.Project{Code: "ghost", Name: "Ghost", Activities: []int64{999}})

		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
		projects, listErr := env.services.CatalogService.ListProjects(ctx)
		require.NoError(t, listErr)
		for _, p := range projects {
			assert.NotEqual(t, "ghost", p.Code)
		}
	})
}

func TestEntryService_EditEntry(t *testing.T) {
	// Arrange
	env := setupServices(t)
	ctx := context.Background()
	entry := env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))

	// Act
	edited, err := env.services.EntryService.EditEntry(ctx, entry.ID, EntryInput{
		ProjectID:     env.admin,
		ActivityID:    env.meeting,
		Start:         at(4, 9, 0),
		End:           at(4, 13, 0),
		SecondsPaused: 1800,
		Comments:      "standup and planning",
	}, false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "3.5", edited.Hours.String())
	assert.Equal(t, int64(1), edited.UserID, "should keep the owner")

	stored, err := env.services.EntryService.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, env.admin, stored.ProjectID)
	assert.Equal(t, "standup and planning", stored.Comments)
	assert.Equal(t, "3.5", stored.Hours.String())
}

func TestEntryService_EditEntry_Locked(t *testing.T) {
	tests := []struct {
		name     string
		override bool
		wantErr  bool
	}{
		{name: "should refuse to edit a verified entry", override: false, wantErr: true},
		{name: "should allow an override to edit a verified entry", override: true, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := setupServices(t)
			ctx := context.Background()
			entry := env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))
			_, err := env.services.EntryService.SetStatus(ctx, entry.ID, domain.StatusVerified)
			require.NoError(t, err)

			// Act
			_, err = env.services.EntryService.EditEntry(ctx, entry.ID, EntryInput{
				ProjectID:  env.dev,
				ActivityID: env.coding,
				Start:      at(4, 9, 30),
				End:        at(4, 12, 0),
			}, tt.override)

			// Assert
			if tt.wantErr {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeLockedPeriod), "unexpected error: %v", err)
				assert.Equal(t, validation.LockedPeriodMessage, errors.GetUserMessage(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEntryService_ApprovedEntriesLockTheirMonth(t *testing.T) {
	// Arrange
	env := setupServices(t)
	ctx := context.Background()
	entry := env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))
	_, err := env.services.EntryService.SetStatus(ctx, entry.ID, domain.StatusApproved)
	require.NoError(t, err)
	env.clock.Set(at(6, 0, 0))

	// Act
	_, sameMonth := env.services.EntryService.AddEntry(ctx, EntryInput{UserID: 1, ProjectID: env.dev, Start: at(5, 9, 0), End: at(5, 10, 0)})
	_, otherUser := env.services.EntryService.AddEntry(ctx, EntryInput{UserID: 2, ProjectID: env.dev, Start: at(5, 9, 0), End: at(5, 10, 0)})
	_, otherMonth := env.services.EntryService.AddEntry(ctx, EntryInput{
		UserID: 1, ProjectID: env.dev,
		Start: time.Date(2024, 2, 27, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC),
	})

	// Assert
	assert.True(t, errors.IsErrorType(sameMonth, errors.ErrorTypeLockedPeriod))
	assert.NoError(t, otherUser)
	assert.NoError(t, otherMonth)
}

func TestEntryService_SetStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.EntryStatus
		wantErr bool
	}{
		{name: "should verify an entry", status: domain.StatusVerified},
		{name: "should approve an entry", status: domain.StatusApproved},
		{name: "should refuse to mark an entry invoiced directly", status: domain.StatusInvoiced, wantErr: true},
		{name: "should refuse an unknown status", status: "lost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := setupServices(t)
			entry := env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))

			// Act
			updated, err := env.services.EntryService.SetStatus(context.Background(), entry.ID, tt.status)

			// Assert
			if tt.wantErr {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, updated.Status)
		})
	}
}

func TestEntryService_ListEntries(t *testing.T) {
	// Arrange
	env := setupServices(t)
	ctx := context.Background()
	first := env.addEntry(t, 1, env.dev, env.coding, at(4, 9, 0), at(4, 12, 0))
	env.addEntry(t, 1, env.admin, env.meeting, at(5, 9, 0), at(5, 10, 0))
	env.addEntry(t, 2, env.dev, env.coding, at(4, 9, 0), at(4, 10, 0))
	_, err := env.services.EntryService.SetStatus(ctx, first.ID, domain.StatusVerified)
	require.NoError(t, err)

	userID := int64(1)
	from, to := at(4, 0, 0), at(5, 0, 0)

	tests := []struct {
		name     string
		query    EntryQuery
		expected int
	}{
		{name: "should list every closed entry", query: EntryQuery{}, expected: 3},
		{name: "should filter by user", query: EntryQuery{UserID: &userID}, expected: 2},
		{name: "should filter by end day", query: EntryQuery{From: &from, To: &to}, expected: 2},
		{name: "should filter by status", query: EntryQuery{Statuses: []domain.EntryStatus{domain.StatusVerified}}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			entries, err := env.services.EntryService.ListEntries(ctx, tt.query)

			// Assert
			require.NoError(t, err)
			assert.Len(t, entries, tt.expected)
		})
	}
}
