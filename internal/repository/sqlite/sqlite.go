package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "timesheet/internal/errors"
	"timesheet/internal/repository"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Dialect is the SQLite flavour of repository.Dialect
type Dialect struct{}

// Name returns the goose dialect name
func (Dialect) Name() string { return "sqlite3" }

// Rebind leaves ? placeholders unchanged
func (Dialect) Rebind(query string) string { return query }

// LockSuffix is empty: SQLite locks the whole database, callers serialise in process
func (Dialect) LockSuffix() string { return "" }

// UserLockStatement is empty: _txlock=immediate already serialises writers
func (Dialect) UserLockStatement() string { return "" }

// NoWait drops the connection's busy timeout so BEGIN IMMEDIATE fails with
// SQLITE_BUSY while another connection writes
func (Dialect) NoWait(ctx context.Context, conn *sql.Conn) (func(), error) {
	var previous int
	if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&previous); err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 0"); err != nil {
		return nil, err
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), fmt.Sprintf("PRAGMA busy_timeout = %d", previous))
	}, nil
}

// IsLockNotAvailable reports SQLITE_BUSY and SQLITE_LOCKED
func (Dialect) IsLockNotAvailable(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// New opens (creating if needed) the SQLite database at dbPath and migrates it
func New(ctx context.Context, dbPath string) (*repository.SQLRepository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, apperrors.NewDatabaseError("open database", err)
	}

	// every connection to :memory: is a separate database
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	repo, err := repository.New(ctx, db, Dialect{})
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewMemory opens a migrated in-memory database, mostly for tests
func NewMemory(ctx context.Context) (*repository.SQLRepository, error) {
	return New(ctx, MemoryPath)
}

func dsn(dbPath string) string {
	if dbPath == MemoryPath || strings.Contains(dbPath, "?") {
		return dbPath
	}
	// immediate transactions take the write lock up front, so concurrent
	// clock-ins from separate processes queue instead of failing on upgrade
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
}
