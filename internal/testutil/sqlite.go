package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socioai/internal/db"
)

// OpenSQLite returns a migrated database backed by a temp file. The pool has
// a single connection, so concurrent transactions run one after another.
// Code holding a transaction must not touch the pool outside of it.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "socioai.db")
	gormDB, err := db.Open(db.Options{
		Driver:       "sqlite",
		DSN:          path + "?_busy_timeout=5000&_foreign_keys=off",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
