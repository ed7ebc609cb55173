package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "timesheet/internal/errors"
	"timesheet/internal/repository"
)

// lock_not_available
const lockNotAvailable = "55P03"

// Dialect is the PostgreSQL flavour of repository.Dialect
type Dialect struct{}

// Name returns the goose dialect name
func (Dialect) Name() string { return "postgres" }

// Rebind rewrites ? placeholders as $n
func (Dialect) Rebind(query string) string { return repository.RebindDollar(query) }

// LockSuffix takes row locks and errors instead of waiting
func (Dialect) LockSuffix() string { return " FOR UPDATE NOWAIT" }

// UserLockStatement takes an advisory lock released at commit or rollback
func (Dialect) UserLockStatement() string { return "SELECT pg_advisory_xact_lock(?)" }

// NoWait does nothing: invoice row locks already use NOWAIT
func (Dialect) NoWait(context.Context, *sql.Conn) (func(), error) { return func() {}, nil }

// IsLockNotAvailable reports SQLSTATE 55P03
func (Dialect) IsLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}

// New connects to PostgreSQL through the pgx stdlib driver and migrates the schema
func New(ctx context.Context, dsn string) (*repository.SQLRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, apperrors.NewDatabaseError("open database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewDatabaseError("connect", err)
	}

	repo, err := repository.New(ctx, db, Dialect{})
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
