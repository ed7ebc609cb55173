package repository

import (
	"database/sql"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

const entryColumns = `id, user_id, project_id, activity_id, status, start_time, end_time,
	seconds_paused, pause_time, comments, hours, writedown, invoice_id`

// ScanEntry scans a single entry in entryColumns order
func ScanEntry(scanner Scanner) (*Entry, error) {
	entry := &Entry{}
	var startTime string
	var endTime, pauseTime, invoiceID sql.NullString

	err := scanner.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProjectID,
		&entry.ActivityID,
		&entry.Status,
		&startTime,
		&endTime,
		&entry.SecondsPaused,
		&pauseTime,
		&entry.Comments,
		&entry.Hours,
		&entry.Writedown,
		&invoiceID,
	)
	if err != nil {
		return nil, err
	}

	if entry.StartTime, err = ParseTimeFromDB(startTime); err != nil {
		return nil, err
	}
	if entry.EndTime, err = ParseNullTimeFromDB(endTime); err != nil {
		return nil, err
	}
	if entry.PauseTime, err = ParseNullTimeFromDB(pauseTime); err != nil {
		return nil, err
	}
	entry.InvoiceID = invoiceID.String

	return entry, nil
}

// ScanEntries scans multiple entries from database rows
func ScanEntries(rows Rows) ([]*Entry, error) {
	return scanAll(rows, ScanEntry)
}

// ScanProject scans a single project row
func ScanProject(scanner Scanner) (*Project, error) {
	p := &Project{}
	if err := scanner.Scan(&p.ID, &p.Code, &p.Name, &p.Billable, &p.LeaveKind); err != nil {
		return nil, err
	}
	return p, nil
}

// ScanProjects scans multiple project rows
func ScanProjects(rows Rows) ([]*Project, error) {
	return scanAll(rows, ScanProject)
}

// ScanActivity scans a single activity row
func ScanActivity(scanner Scanner) (*Activity, error) {
	a := &Activity{}
	if err := scanner.Scan(&a.ID, &a.Code, &a.Name, &a.Billable); err != nil {
		return nil, err
	}
	return a, nil
}

// ScanActivities scans multiple activity rows
func ScanActivities(rows Rows) ([]*Activity, error) {
	return scanAll(rows, ScanActivity)
}

// ScanLockedPeriod scans a single locked period row
func ScanLockedPeriod(scanner Scanner) (*LockedPeriod, error) {
	lp := &LockedPeriod{}
	var userID sql.NullInt64
	var start, end string
	if err := scanner.Scan(&lp.ID, &userID, &start, &end); err != nil {
		return nil, err
	}
	if userID.Valid {
		lp.UserID = &userID.Int64
	}
	var err error
	if lp.Start, err = ParseTimeFromDB(start); err != nil {
		return nil, err
	}
	if lp.End, err = ParseTimeFromDB(end); err != nil {
		return nil, err
	}
	return lp, nil
}

// ScanLockedPeriods scans multiple locked period rows
func ScanLockedPeriods(rows Rows) ([]*LockedPeriod, error) {
	return scanAll(rows, ScanLockedPeriod)
}

func scanAll[T any](rows Rows, scan func(Scanner) (*T, error)) ([]*T, error) {
	var results []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
