package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"timesheet/internal/errors"
	"timesheet/internal/repository/migrations"
)

// Repository defines the persistence operations the timesheet engine needs
type Repository interface {
	// Catalog
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	CreateActivity(ctx context.Context, activity *Activity) error
	ListActivities(ctx context.Context) ([]*Activity, error)

	// Entries
	CreateEntry(ctx context.Context, entry *Entry) error
	GetEntry(ctx context.Context, id int64) (*Entry, error)
	UpdateEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ActiveEntries(ctx context.Context, userID int64) ([]*Entry, error)
	SearchEntries(ctx context.Context, filter EntryFilter) ([]*Entry, error)
	OverlapCandidates(ctx context.Context, userID int64, start, end time.Time) ([]*Entry, error)
	ListUserIDs(ctx context.Context) ([]int64, error)

	// Closeout
	CreateLockedPeriod(ctx context.Context, period *LockedPeriod) error
	LockedPeriodsAt(ctx context.Context, userID int64, at time.Time) ([]*LockedPeriod, error)
	LockedMonthEntries(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (int, error)
	LockEntriesForInvoice(ctx context.Context, ids []int64) ([]*Entry, error)
	CreateInvoice(ctx context.Context, invoiceID string, projectID int64, createdAt time.Time, entryIDs []int64) error

	// LockUser serialises writers for one user until the transaction ends
	LockUser(ctx context.Context, userID int64) error

	// WithTx runs fn against a repository bound to a single transaction
	WithTx(ctx context.Context, fn func(Repository) error) error
	// WithTxNoWait is WithTx failing with a lock contention error where it would wait for another writer
	WithTxNoWait(ctx context.Context, fn func(Repository) error) error

	// Utility
	Close() error
}

// SQLRepository implements Repository over database/sql for any supported Dialect
type SQLRepository struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
}

// New wraps an open database, applying migrations for the dialect
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLRepository, error) {
	if err := migrations.Run(ctx, db, dialect.Name()); err != nil {
		return nil, errors.NewDatabaseError("run migrations", err)
	}
	return &SQLRepository{db: db, q: db, dialect: dialect}, nil
}

// DB exposes the underlying connection pool
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) bind(query string) string {
	return r.dialect.Rebind(query)
}

// WithTx runs fn inside a transaction, committing only if fn succeeds.
// Nested calls reuse the outer transaction.
func (r *SQLRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin transaction", err)
	}

	txRepo := &SQLRepository{db: r.db, q: tx, dialect: r.dialect, inTx: true}
	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit transaction", err)
	}
	return nil
}

// WithTxNoWait runs fn inside a transaction on a connection that does not wait
// for locks. Nested calls reuse the outer transaction.
func (r *SQLRepository) WithTxNoWait(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return HandleDatabaseError("acquire connection", err)
	}
	defer conn.Close()

	restore, err := r.dialect.NoWait(ctx, conn)
	if err != nil {
		return HandleDatabaseError("disable lock waits", err)
	}
	defer restore()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return r.lockError("begin transaction", err)
	}

	txRepo := &SQLRepository{db: r.db, q: tx, dialect: r.dialect, inTx: true}
	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return r.lockError("", err)
	}

	if err := tx.Commit(); err != nil {
		return r.lockError("commit transaction", err)
	}
	return nil
}

// lockError maps lock failures to lock contention errors. An empty operation
// passes other errors through unchanged.
func (r *SQLRepository) lockError(operation string, err error) error {
	if errors.IsErrorType(err, errors.ErrorTypeLockContention) {
		return err
	}
	if r.dialect.IsLockNotAvailable(err) {
		return errors.NewLockContentionError("entries", err)
	}
	if operation == "" {
		return err
	}
	return HandleDatabaseError(operation, err)
}

// LockUser blocks until no other transaction holds the user's lock.
// Outside a transaction it is a no-op.
func (r *SQLRepository) LockUser(ctx context.Context, userID int64) error {
	stmt := r.dialect.UserLockStatement()
	if stmt == "" || !r.inTx {
		return nil
	}
	if _, err := r.q.ExecContext(ctx, r.bind(stmt), userID); err != nil {
		return HandleDatabaseError("lock user", err)
	}
	return nil
}

// CreateProject creates a new project
func (r *SQLRepository) CreateProject(ctx context.Context, project *Project) error {
	if project.LeaveKind == "" {
		project.LeaveKind = "none"
	}
	query := `INSERT INTO projects (code, name, billable, leave_kind) VALUES (?, ?, ?, ?) RETURNING id`
	id, err := InsertReturningID(ctx, r.q, r.bind(query), project.Code, project.Name, project.Billable, project.LeaveKind)
	if err != nil {
		return err
	}
	project.ID = id

	link := `INSERT INTO project_activities (project_id, activity_id) VALUES (?, ?)`
	for _, activityID := range project.ActivityIDs {
		if _, err := r.q.ExecContext(ctx, r.bind(link), id, activityID); err != nil {
			return HandleDatabaseError("link project activity", err)
		}
	}
	return nil
}

// GetProject retrieves a project by ID
func (r *SQLRepository) GetProject(ctx context.Context, id int64) (*Project, error) {
	query := `SELECT id, code, name, billable, leave_kind FROM projects WHERE id = ?`
	project, err := QuerySingle(ctx, r.q, r.bind(query), ScanProject, "project", fmt.Sprintf("%d", id), id)
	if err != nil {
		return nil, err
	}
	if err := r.attachActivities(ctx, []*Project{project}); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects retrieves all projects
func (r *SQLRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	query := `SELECT id, code, name, billable, leave_kind FROM projects ORDER BY name ASC`
	projects, err := QueryMultiple(ctx, r.q, query, ScanProjects, "projects")
	if err != nil {
		return nil, err
	}
	if err := r.attachActivities(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// attachActivities fills in each project's allowed activity IDs
func (r *SQLRepository) attachActivities(ctx context.Context, projects []*Project) error {
	if len(projects) == 0 {
		return nil
	}
	byID := make(map[int64]*Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	rows, err := r.q.QueryContext(ctx, `SELECT project_id, activity_id FROM project_activities ORDER BY project_id ASC, activity_id ASC`)
	if err != nil {
		return HandleDatabaseError("query project activities", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, activityID int64
		if err := rows.Scan(&projectID, &activityID); err != nil {
			return HandleDatabaseError("scan project activities", err)
		}
		if p, ok := byID[projectID]; ok {
			p.ActivityIDs = append(p.ActivityIDs, activityID)
		}
	}
	if err := rows.Err(); err != nil {
		return HandleDatabaseError("scan project activities", err)
	}
	return nil
}

// CreateActivity creates a new activity
func (r *SQLRepository) CreateActivity(ctx context.Context, activity *Activity) error {
	query := `INSERT INTO activities (code, name, billable) VALUES (?, ?, ?) RETURNING id`
	id, err := InsertReturningID(ctx, r.q, r.bind(query), activity.Code, activity.Name, activity.Billable)
	if err != nil {
		return err
	}
	activity.ID = id
	return nil
}

// ListActivities retrieves all activities
func (r *SQLRepository) ListActivities(ctx context.Context) ([]*Activity, error) {
	query := `SELECT id, code, name, billable FROM activities ORDER BY name ASC`
	return QueryMultiple(ctx, r.q, query, ScanActivities, "activities")
}

// CreateEntry creates a new entry
func (r *SQLRepository) CreateEntry(ctx context.Context, entry *Entry) error {
	query := `
	INSERT INTO entries (user_id, project_id, activity_id, status, start_time, end_time,
		seconds_paused, pause_time, comments, hours, writedown, invoice_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`

	id, err := InsertReturningID(ctx, r.q, r.bind(query),
		entry.UserID, entry.ProjectID, entry.ActivityID, entry.Status,
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime),
		entry.SecondsPaused, FormatTimePtrForDB(entry.PauseTime), entry.Comments,
		entry.Hours, entry.Writedown, nullString(entry.InvoiceID))
	if err != nil {
		return err
	}

	entry.ID = id
	return nil
}

// GetEntry retrieves an entry by ID
func (r *SQLRepository) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`
	return QuerySingle(ctx, r.q, r.bind(query), ScanEntry, "entry", fmt.Sprintf("%d", id), id)
}

// UpdateEntry updates an existing entry
func (r *SQLRepository) UpdateEntry(ctx context.Context, entry *Entry) error {
	query := `
	UPDATE entries
	SET user_id = ?, project_id = ?, activity_id = ?, status = ?, start_time = ?, end_time = ?,
		seconds_paused = ?, pause_time = ?, comments = ?, hours = ?, writedown = ?, invoice_id = ?
	WHERE id = ?`

	return ExecuteWithRowsAffected(ctx, r.q, r.bind(query), "entry", fmt.Sprintf("%d", entry.ID),
		entry.UserID, entry.ProjectID, entry.ActivityID, entry.Status,
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime),
		entry.SecondsPaused, FormatTimePtrForDB(entry.PauseTime), entry.Comments,
		entry.Hours, entry.Writedown, nullString(entry.InvoiceID), entry.ID)
}

// DeleteEntry deletes an entry by ID
func (r *SQLRepository) DeleteEntry(ctx context.Context, id int64) error {
	query := `DELETE FROM entries WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.q, r.bind(query), "entry", fmt.Sprintf("%d", id), id)
}

// ActiveEntries returns the user's entries that have no end time
func (r *SQLRepository) ActiveEntries(ctx context.Context, userID int64) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = ? AND end_time IS NULL ORDER BY start_time ASC`
	return QueryMultiple(ctx, r.q, r.bind(query), ScanEntries, "entries", userID)
}

// SearchEntries returns closed entries matching the filter, ordered by end time
func (r *SQLRepository) SearchEntries(ctx context.Context, filter EntryFilter) ([]*Entry, error) {
	conditions := []string{"end_time IS NOT NULL"}
	var args []interface{}

	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.EndFrom != nil {
		conditions = append(conditions, "end_time >= ?")
		args = append(args, FormatTimeForDB(*filter.EndFrom))
	}
	if filter.EndTo != nil {
		conditions = append(conditions, "end_time < ?")
		args = append(args, FormatTimeForDB(*filter.EndTo))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + entryColumns + ` FROM entries WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY end_time ASC, id ASC`

	return QueryMultiple(ctx, r.q, r.bind(query), ScanEntries, "entries", args...)
}

// OverlapCandidates returns the user's entries whose span may intersect [start, end]
func (r *SQLRepository) OverlapCandidates(ctx context.Context, userID int64, start, end time.Time) ([]*Entry, error) {
	query := `
	SELECT ` + entryColumns + `
	FROM entries
	WHERE user_id = ? AND start_time <= ? AND (end_time IS NULL OR end_time >= ?)
	ORDER BY start_time ASC, id ASC`

	return QueryMultiple(ctx, r.q, r.bind(query), ScanEntries, "entries",
		userID, FormatTimeForDB(end), FormatTimeForDB(start))
}

// ListUserIDs returns every user that has booked time
func (r *SQLRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT DISTINCT user_id FROM entries ORDER BY user_id ASC`)
	if err != nil {
		return nil, HandleDatabaseError("query users", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, HandleDatabaseError("scan users", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, HandleDatabaseError("scan users", err)
	}
	return ids, nil
}

// CreateLockedPeriod records a closed-out range
func (r *SQLRepository) CreateLockedPeriod(ctx context.Context, period *LockedPeriod) error {
	query := `INSERT INTO locked_periods (user_id, start_time, end_time) VALUES (?, ?, ?) RETURNING id`
	var userID interface{}
	if period.UserID != nil {
		userID = *period.UserID
	}
	id, err := InsertReturningID(ctx, r.q, r.bind(query), userID, FormatTimeForDB(period.Start), FormatTimeForDB(period.End))
	if err != nil {
		return err
	}
	period.ID = id
	return nil
}

// LockedPeriodsAt returns the locked periods covering the instant for the user
func (r *SQLRepository) LockedPeriodsAt(ctx context.Context, userID int64, at time.Time) ([]*LockedPeriod, error) {
	query := `
	SELECT id, user_id, start_time, end_time
	FROM locked_periods
	WHERE (user_id IS NULL OR user_id = ?) AND start_time <= ? AND end_time > ?
	ORDER BY start_time ASC`

	ts := FormatTimeForDB(at)
	return QueryMultiple(ctx, r.q, r.bind(query), ScanLockedPeriods, "locked periods", userID, ts, ts)
}

// LockedMonthEntries counts the user's approved or invoiced entries starting in [monthStart, monthEnd)
func (r *SQLRepository) LockedMonthEntries(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (int, error) {
	query := `
	SELECT COUNT(*)
	FROM entries
	WHERE user_id = ? AND status IN ('approved', 'invoiced') AND start_time >= ? AND start_time < ?`

	var count int
	err := r.q.QueryRowContext(ctx, r.bind(query), userID, FormatTimeForDB(monthStart), FormatTimeForDB(monthEnd)).Scan(&count)
	if err != nil {
		return 0, HandleDatabaseError("count locked entries", err)
	}
	return count, nil
}

// LockEntriesForInvoice selects the entries for exclusive use by the current transaction.
// It fails fast with a lock contention error when another transaction holds any of them.
func (r *SQLRepository) LockEntriesForInvoice(ctx context.Context, ids []int64) ([]*Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + entryColumns + ` FROM entries WHERE id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id ASC` +
		r.dialect.LockSuffix()

	rows, err := r.q.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		if r.dialect.IsLockNotAvailable(err) {
			return nil, errors.NewLockContentionError("entries", err)
		}
		return nil, HandleDatabaseError("lock entries", err)
	}
	defer rows.Close()

	entries, err := ScanEntries(rows)
	if err != nil {
		if r.dialect.IsLockNotAvailable(err) {
			return nil, errors.NewLockContentionError("entries", err)
		}
		return nil, HandleDatabaseError("scan entries", err)
	}
	return entries, nil
}

// CreateInvoice records an invoice batch and attaches the entries to it
func (r *SQLRepository) CreateInvoice(ctx context.Context, invoiceID string, projectID int64, createdAt time.Time, entryIDs []int64) error {
	insert := `INSERT INTO invoices (id, project_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.q.ExecContext(ctx, r.bind(insert), invoiceID, projectID, FormatTimeForDB(createdAt)); err != nil {
		return HandleDatabaseError("create invoice", err)
	}

	update := `UPDATE entries SET invoice_id = ?, status = 'invoiced' WHERE id = ?`
	for _, id := range entryIDs {
		if err := ExecuteWithRowsAffected(ctx, r.q, r.bind(update), "entry", fmt.Sprintf("%d", id), invoiceID, id); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
