package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/errors"
)

// EntryStatus is the review state of a clock entry.
type EntryStatus string

const (
	StatusUnverified  EntryStatus = "unverified"
	StatusVerified    EntryStatus = "verified"
	StatusApproved    EntryStatus = "approved"
	StatusInvoiced    EntryStatus = "invoiced"
	StatusNotInvoiced EntryStatus = "not-invoiced"
)

// IsValid reports whether s is a known status.
func (s EntryStatus) IsValid() bool {
	switch s {
	case StatusUnverified, StatusVerified, StatusApproved, StatusInvoiced, StatusNotInvoiced:
		return true
	}
	return false
}

// LocksMonth reports whether entries in this status close the month they start in.
func (s EntryStatus) LocksMonth() bool {
	return s == StatusApproved || s == StatusInvoiced
}

// EntryState is the lifecycle position of a clock entry.
type EntryState int

const (
	StateOpenUnpaused EntryState = iota
	StateOpenPaused
	StateClosed
)

// String returns the string representation of the state
func (s EntryState) String() string {
	switch s {
	case StateOpenUnpaused:
		return "open"
	case StateOpenPaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ClockEntry is one span of worked time for one user.
// Hours is derived and recomputed by every mutating method.
type ClockEntry struct {
	ID            int64
	UserID        int64
	ProjectID     int64
	ActivityID    int64
	Status        EntryStatus
	StartTime     time.Time
	EndTime       *time.Time
	SecondsPaused int64
	PauseTime     *time.Time
	Comments      string
	Hours         decimal.Decimal
	Writedown     bool
	InvoiceID     string
}

// NewClockEntry creates an unstarted entry for the given user and project.
func NewClockEntry(userID, projectID int64) *ClockEntry {
	return &ClockEntry{
		UserID:    userID,
		ProjectID: projectID,
		Status:    StatusUnverified,
	}
}

// State returns the current lifecycle state.
func (e *ClockEntry) State() EntryState {
	switch {
	case e.EndTime != nil:
		return StateClosed
	case e.PauseTime != nil:
		return StateOpenPaused
	default:
		return StateOpenUnpaused
	}
}

// IsOpen returns true while the entry has no end time.
func (e *ClockEntry) IsOpen() bool {
	return e.EndTime == nil
}

// IsClosed returns true once the entry has an end time.
func (e *ClockEntry) IsClosed() bool {
	return e.EndTime != nil
}

// IsPaused returns true while a pause is in progress.
func (e *ClockEntry) IsPaused() bool {
	return e.PauseTime != nil
}

// IsEditable returns true if the entry has not yet been verified.
func (e *ClockEntry) IsEditable() bool {
	return e.Status == StatusUnverified || e.Status == ""
}

// ClockIn starts the entry at now.
func (e *ClockEntry) ClockIn(userID, projectID int64, now time.Time) error {
	if e.IsClosed() {
		return errors.NewAlreadyClosedError(e.ID)
	}
	e.UserID = userID
	e.ProjectID = projectID
	e.StartTime = now
	if e.Status == "" {
		e.Status = StatusUnverified
	}
	e.recompute(now)
	return nil
}

// Pause records the start of a pause. Pausing a paused entry is a no-op.
func (e *ClockEntry) Pause(now time.Time) {
	if e.IsClosed() || e.IsPaused() {
		return
	}
	pausedAt := now
	e.PauseTime = &pausedAt
	e.recompute(now)
}

// Unpause credits the time since the pause started. Unpausing a running entry is a no-op.
func (e *ClockEntry) Unpause(now time.Time) {
	if !e.IsPaused() {
		return
	}
	if delta := int64(now.Sub(*e.PauseTime) / time.Second); delta > 0 {
		e.SecondsPaused += delta
	}
	e.PauseTime = nil
	e.recompute(now)
}

// Toggle flips between paused and running.
func (e *ClockEntry) Toggle(now time.Time) {
	if e.IsPaused() {
		e.Unpause(now)
		return
	}
	e.Pause(now)
}

// ClockOut closes the entry at now, crediting any pause in progress.
// A closed entry is left untouched and AlreadyClosed is reported.
func (e *ClockEntry) ClockOut(activityID int64, comments string, now time.Time) error {
	if e.IsClosed() {
		return errors.NewAlreadyClosedError(e.ID)
	}
	e.Unpause(now)
	end := now
	e.EndTime = &end
	e.ActivityID = activityID
	e.Comments = comments
	e.recompute(now)
	return nil
}

// PausedSeconds returns the accumulated pause plus any pause still in progress.
func (e *ClockEntry) PausedSeconds(now time.Time) int64 {
	paused := e.SecondsPaused
	if e.IsPaused() {
		if delta := int64(now.Sub(*e.PauseTime) / time.Second); delta > 0 {
			paused += delta
		}
	}
	return paused
}

// ElapsedSeconds returns wall-clock seconds between start and end, or now if open.
func (e *ClockEntry) ElapsedSeconds(now time.Time) int64 {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	return int64(end.Sub(e.StartTime) / time.Second)
}

// TotalSeconds returns worked seconds, never negative.
func (e *ClockEntry) TotalSeconds(now time.Time) int64 {
	total := e.ElapsedSeconds(now) - e.PausedSeconds(now)
	if total < 0 {
		return 0
	}
	return total
}

// TotalHours returns worked hours rounded to two decimal places.
func (e *ClockEntry) TotalHours(now time.Time) decimal.Decimal {
	return SecondsToHours(e.TotalSeconds(now))
}

// Duration returns worked time as a time.Duration.
func (e *ClockEntry) Duration(now time.Time) time.Duration {
	return time.Duration(e.TotalSeconds(now)) * time.Second
}

// Span returns the wall-clock interval used for overlap checks.
// Open entries are treated as lasting one second.
func (e *ClockEntry) Span() (time.Time, time.Time) {
	if e.EndTime == nil {
		return e.StartTime, e.StartTime.Add(time.Second)
	}
	return e.StartTime, *e.EndTime
}

// Recompute refreshes the derived hours against now.
func (e *ClockEntry) Recompute(now time.Time) {
	e.recompute(now)
}

func (e *ClockEntry) recompute(now time.Time) {
	e.Hours = e.TotalHours(now)
}

var secondsPerHour = decimal.NewFromInt(3600)

// SecondsToHours converts seconds to hours at two decimal places.
func SecondsToHours(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).DivRound(secondsPerHour, 2)
}
