package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the stores react to.
const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

// ErrLockTimeout reports a statement that gave up waiting on a row lock held
// by a concurrent transition. The operation is safe to retry.
var ErrLockTimeout = errors.New("timed out waiting for a concurrent update")

// MapError turns driver errors into store sentinels: sql.ErrNoRows becomes
// notFoundErr and a unique violation becomes duplicateErr. A lock timeout
// wraps ErrLockTimeout. Anything else passes through.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicateErr
		case pgLockNotAvailable:
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
	}
	return err
}

// DuplicateConstraint names the unique constraint behind a violation, for
// tables that carry more than one unique key.
func DuplicateConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
