package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timesheet/internal/domain"
	"timesheet/internal/errors"
)

// LockedPeriodMessage is shown when an entry falls inside a closed-out period
const LockedPeriodMessage = "You cannot add/edit entries after a timesheet has been approved or invoiced. " +
	"Please correct the start and end times."

// NameResolver turns project and activity IDs into display names and knows
// which activities each project accepts
type NameResolver interface {
	ProjectName(id int64) string
	ActivityName(id int64) string
	ActivityAllowed(projectID, activityID int64) bool
	AllowedActivityNames(projectID int64) []string
}

// PeriodLocks reports whether an instant is closed to edits for a user
type PeriodLocks interface {
	// IsLocked reports whether a closed-out range covers the instant
	IsLocked(ctx context.Context, userID int64, at time.Time) (bool, error)
	// MonthLocked reports whether the instant's month already holds approved or invoiced entries
	MonthLocked(ctx context.Context, userID int64, at time.Time) (bool, error)
}

// EntryOptions controls a single validation run
type EntryOptions struct {
	Now time.Time
	// Override lets a privileged caller edit inside locked periods
	Override bool
}

// EntryValidator runs the ordered checks every entry mutation must pass before it is stored
type EntryValidator struct {
	validator *Validator
	names     NameResolver
	locks     PeriodLocks
}

// NewEntryValidator creates an entry validator. locks may be nil when no periods are closed out.
func NewEntryValidator(maxDuration time.Duration, names NameResolver, locks PeriodLocks) *EntryValidator {
	return &EntryValidator{
		validator: NewValidatorWithMaxDuration(maxDuration),
		names:     names,
		locks:     locks,
	}
}

// Validate returns the first failing check, in order: owner, start, start not in the
// future, end not in the future, start before end, no overlap with others, activity
// allowed on the project, maximum duration, locked period. others are the owner's other entries; the candidate's
// stored copy may be among them.
func (ev *EntryValidator) Validate(ctx context.Context, candidate *domain.ClockEntry, others []*domain.ClockEntry, opts EntryOptions) error {
	if err := ev.validateFields(candidate, others, opts.Now); err != nil {
		return err
	}
	if opts.Override {
		return nil
	}
	return ev.validateNotLocked(ctx, candidate)
}

func (ev *EntryValidator) validateFields(candidate *domain.ClockEntry, others []*domain.ClockEntry, now time.Time) error {
	validationError := NewValidationError()

	switch {
	case !ev.validator.IsValidID(candidate.UserID):
		validationError.AddRequiredError("user")
	case candidate.StartTime.IsZero():
		validationError.AddRequiredError("start_time")
	case candidate.StartTime.After(now):
		validationError.AddFutureTimeError("start_time", candidate.StartTime, "Start time cannot be in the future")
	case candidate.EndTime != nil && candidate.EndTime.After(now):
		validationError.AddFutureTimeError("end_time", *candidate.EndTime, "Ending time cannot be in the future")
	case !ev.validator.IsValidTimeRange(candidate.StartTime, candidate.EndTime):
		validationError.AddInvalidRangeError("end_time", *candidate.EndTime, "Ending time must exceed the starting time")
	default:
		if conflicts := domain.FindConflicts(candidate, others); len(conflicts) > 0 {
			validationError.AddOverlapError("start_time", conflicts[0], ev.overlapMessage(candidate, conflicts[0]))
		} else if candidate.ActivityID != 0 && !ev.names.ActivityAllowed(candidate.ProjectID, candidate.ActivityID) {
			validationError.AddNotAllowedError("activity", candidate.ActivityID, ev.activityMessage(candidate))
		} else if msg, value, ok := ev.checkDuration(candidate, now); !ok {
			validationError.AddTooLongError("end_time", value, msg)
		}
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

func (ev *EntryValidator) checkDuration(candidate *domain.ClockEntry, now time.Time) (string, time.Duration, bool) {
	limit := ev.validator.MaxDuration()

	if candidate.EndTime != nil {
		elapsed := candidate.EndTime.Sub(candidate.StartTime)
		if !ev.validator.IsWithinMaxDuration(elapsed) {
			msg := fmt.Sprintf("Ending time exceeds starting time by more than %s for %s on %s to %s.",
				formatLimit(limit),
				ev.names.ProjectName(candidate.ProjectID),
				candidate.StartTime.Format("2006-01-02 at 15:04"),
				candidate.EndTime.In(candidate.StartTime.Location()).Format("2006-01-02 at 15:04"))
			return msg, elapsed, false
		}
	}

	paused := time.Duration(candidate.PausedSeconds(now)) * time.Second
	if !ev.validator.IsWithinMaxDuration(paused) {
		msg := fmt.Sprintf("Entry has been paused for more than %s on %s.",
			formatLimit(limit), ev.names.ProjectName(candidate.ProjectID))
		return msg, paused, false
	}
	return "", 0, true
}

func (ev *EntryValidator) activityMessage(candidate *domain.ClockEntry) string {
	msg := ev.names.ActivityName(candidate.ActivityID) + " is not allowed for this project."
	allowed := ev.names.AllowedActivityNames(candidate.ProjectID)
	switch len(allowed) {
	case 0:
		return msg
	case 1:
		return msg + " Please choose " + allowed[0]
	}
	return msg + " Please choose among " + strings.Join(allowed[:len(allowed)-1], ", ") + ", and " + allowed[len(allowed)-1]
}

func (ev *EntryValidator) overlapMessage(candidate, conflict *domain.ClockEntry) string {
	loc := candidate.StartTime.Location()
	start := conflict.StartTime.In(loc)

	layout := "15:04:05"
	end := "now"
	if conflict.EndTime != nil {
		e := conflict.EndTime.In(loc)
		if !sameDay(start, candidate.StartTime) || !sameDay(e, candidate.StartTime) {
			layout = "2006-01-02 15:04:05"
		}
		end = e.Format(layout)
	} else if !sameDay(start, candidate.StartTime) {
		layout = "2006-01-02 15:04:05"
	}

	return fmt.Sprintf("Start time overlaps with %s on %s from %s to %s.",
		ev.names.ActivityName(conflict.ActivityID),
		ev.names.ProjectName(conflict.ProjectID),
		start.Format(layout), end)
}

func (ev *EntryValidator) validateNotLocked(ctx context.Context, candidate *domain.ClockEntry) error {
	end := candidate.StartTime
	if candidate.EndTime != nil {
		end = *candidate.EndTime
	}

	if candidate.ID != 0 && !candidate.IsEditable() {
		return errors.NewLockedPeriodError(LockedPeriodMessage, candidate.StartTime, end)
	}
	if ev.locks == nil {
		return nil
	}

	for _, at := range []time.Time{candidate.StartTime, end} {
		locked, err := ev.locks.IsLocked(ctx, candidate.UserID, at)
		if err == nil && !locked && candidate.ID == 0 {
			// stored entries stay closable after their month is reviewed
			locked, err = ev.locks.MonthLocked(ctx, candidate.UserID, at)
		}
		if err != nil {
			return err
		}
		if locked {
			return errors.NewLockedPeriodError(LockedPeriodMessage, candidate.StartTime, end)
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatLimit(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
