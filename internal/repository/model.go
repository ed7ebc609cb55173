package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a row of the projects table
type Project struct {
	ID        int64
	Code      string
	Name      string
	Billable  bool
	LeaveKind string
	// ActivityIDs restricts the project's activities; empty allows any
	ActivityIDs []int64
}

// Activity is a row of the activities table
type Activity struct {
	ID       int64
	Code     string
	Name     string
	Billable bool
}

// Entry is a row of the entries table
type Entry struct {
	ID            int64
	UserID        int64
	ProjectID     int64
	ActivityID    int64
	Status        string
	StartTime     time.Time
	EndTime       *time.Time // NULL while the entry is open
	SecondsPaused int64
	PauseTime     *time.Time
	Comments      string
	Hours         decimal.Decimal
	Writedown     bool
	InvoiceID     string
}

// LockedPeriod is a closed-out range of instants, [Start, End).
// A nil UserID locks the range for everyone.
type LockedPeriod struct {
	ID     int64
	UserID *int64
	Start  time.Time
	End    time.Time
}

// EntryFilter narrows entry queries. End bounds are half-open: [EndFrom, EndTo).
type EntryFilter struct {
	UserID    *int64
	ProjectID *int64
	EndFrom   *time.Time
	EndTo     *time.Time
	Statuses  []string
}
