package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL engines
type Dialect interface {
	// Name is the goose dialect name and the migrations directory
	Name() string
	// Rebind rewrites ? placeholders into the engine's form
	Rebind(query string) string
	// LockSuffix is appended to SELECTs that must take row locks without waiting
	LockSuffix() string
	// IsLockNotAvailable reports whether err means a lock could not be taken immediately
	IsLockNotAvailable(err error) bool
	// UserLockStatement takes a transaction-scoped lock keyed by user id, or is
	// empty when the engine already serialises writers
	UserLockStatement() string
	// NoWait makes conn fail instead of waiting on locks and returns a func
	// restoring the previous behaviour
	NoWait(ctx context.Context, conn *sql.Conn) (restore func(), err error)
}

// RebindDollar rewrites ? placeholders as $1, $2, ...
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
