package database

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/envelope-zero/ledger/internal/models"
	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PostgreSQL error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgLockNotAvailable    = "55P03"
)

var plural = regexp.MustCompile("ies$")

func registerCallbacks(db *gorm.DB) error {
	// Query callbacks
	err := db.Callback().Query().After("*").Register("ledger:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("ledger:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	// Create callbacks
	err = db.Callback().Create().After("*").Register("ledger:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("ledger:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	// Update callbacks
	err = db.Callback().Update().After("*").Register("ledger:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("ledger:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	// Delete callbacks
	return db.Callback().Delete().After("*").Register("ledger:after_delete_general", generalCallback)
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		name = plural.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", models.ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(db.Error, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "friendly_id"):
			db.Error = fmt.Errorf("%w: %s", models.ErrFriendlyIDConflict, pgErr.Detail)
		case pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "categories"):
			db.Error = models.ErrCategoryNameNotUnique
		case pgErr.Code == pgForeignKeyViolation:
			db.Error = fmt.Errorf("%w resource referenced by %s", models.ErrResourceNotFound, db.Statement.Table)
		}
		return
	}

	// Friendly IDs must never collide
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: transactions.friendly_id") {
		db.Error = models.ErrFriendlyIDConflict
	}

	// Category names are unique
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: categories.name") {
		db.Error = models.ErrCategoryNameNotUnique
	}

	// The referenced account, envelope or category does not exist
	if strings.Contains(db.Error.Error(), "FOREIGN KEY constraint failed") {
		db.Error = fmt.Errorf("%w resource referenced by %s", models.ErrResourceNotFound, db.Statement.Table)
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(db.Error, &pgErr) {
		if pgErr.Code == pgLockNotAvailable {
			db.Error = models.ErrLockTimeout
			return
		}

		// Constraint errors have been translated already
		if pgErr.Code == pgUniqueViolation || pgErr.Code == pgForeignKeyViolation {
			return
		}

		log.Error().Str("code", pgErr.Code).Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = fmt.Errorf("%w: %s", models.ErrGeneral, pgErr.Message)
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		// A general error where we cannot provide more useful information to the end user
		// We log the error and provide a general error message so that server admins can debug
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = models.ErrGeneral

		return
	}
}
