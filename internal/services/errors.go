package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFragment = "unique constraint failed"
)

// duplicateKey reports whether err is a unique index violation on any supported driver.
func duplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), sqliteUniqueFragment)
}

// userWriteError maps a failed user write to ErrEmailTaken when the email index
// rejected it.
func userWriteError(op string, err error) error {
	if duplicateKey(err) {
		return ErrEmailTaken
	}
	return fmt.Errorf("user service: %s: %w", op, err)
}
