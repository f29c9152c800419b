package test

import (
	"path/filepath"
	"testing"

	"github.com/envelope-zero/ledger/internal/database"
	"github.com/envelope-zero/ledger/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TmpFile returns the path to a unique file to be used in tests
func TmpFile(t *testing.T) string {
	dir := t.TempDir()
	return filepath.Join(dir, uuid.New().String())
}

// Database returns a migrated SQLite database in a temporary file.
//
// The connection is closed when the test ends.
func Database(t *testing.T) *gorm.DB {
	db, err := database.Connect(sqlite.Open(database.SQLiteDSN(TmpFile(t))))
	require.NoError(t, err, "Database connection failed")

	err = models.Migrate(db)
	require.NoError(t, err, "Database migration failed")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}
