package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/envelope-zero/ledger/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// Dialector returns the gorm dialector for the configured database.
//
// If DB_HOST is set, PostgreSQL is used. Otherwise, the SQLite database
// at SQLITE_PATH is used, its directory is created if needed.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	if cfg.Postgres() {
		log.Debug().Msg("DB_HOST is set, using postgresql")
		return postgres.Open(cfg.PostgresDSN()), nil
	}

	log.Debug().Str("path", cfg.SQLitePath).Msg("DB_HOST is not set, using sqlite database")
	err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}

	return sqlite.Open(SQLiteDSN(cfg.SQLitePath)), nil
}

// SQLiteDSN returns the DSN for the SQLite database file at path
// with foreign keys enabled.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// Connect opens the database and configures the connection pool.
func Connect(dialector gorm.Dialector) (*gorm.DB, error) {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: NewLogger(log.Logger, gorm_logger.Info),
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// This is done to prevent SQLITE_BUSY errors. With a single connection,
	// SQLite transactions are serialized by the connection pool.
	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	err = registerCallbacks(db)
	if err != nil {
		return nil, err
	}

	return db, nil
}
