package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
)

// PostgreSQL SQLSTATEs that mean "your transaction lost a race, run it again"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// MySQL error numbers with the same meaning
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classifyError maps driver errors onto the repository sentinels so callers
// never need to know which database is behind the store
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domainRepo.ErrConflict) || errors.Is(err, domainRepo.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected:
			return fmt.Errorf("%w: %s", domainRepo.ErrConflict, pgErr.Message)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return fmt.Errorf("%w: %s", domainRepo.ErrStoreUnavailable, pgErr.Message)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout {
			return fmt.Errorf("%w: %s", domainRepo.ErrConflict, myErr.Message)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %v", domainRepo.ErrStoreUnavailable, err)
	}
	return err
}
