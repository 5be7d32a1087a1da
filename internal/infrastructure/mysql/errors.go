package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry   = 1062
	errLockWaitTimeout  = 1205
	errDeadlockDetected = 1213
)

// IsDuplicateEntry reports a unique key violation.
func IsDuplicateEntry(err error) bool {
	return hasNumber(err, errDuplicateEntry)
}

// IsDeadlock reports errors after which the whole transaction may be retried.
func IsDeadlock(err error) bool {
	return hasNumber(err, errDeadlockDetected) || hasNumber(err, errLockWaitTimeout)
}

func hasNumber(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == number
	}
	return false
}
