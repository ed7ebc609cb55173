package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should migrate sqlite to the latest version", func(t *testing.T) {
		// Arrange
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		defer db.Close()

		// Act
		require.NoError(t, Run(ctx, db, "sqlite3"))
		require.NoError(t, Run(ctx, db, "sqlite3"))
		version, err := Version(ctx, db, "sqlite3")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(5), version)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locked_periods`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("should reject unknown dialects", func(t *testing.T) {
		err := Run(ctx, nil, "mysql")
		assert.EqualError(t, err, "unsupported migration dialect: mysql")

		_, err = Version(ctx, nil, "mysql")
		assert.Error(t, err)
	})
}
