package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrSaleNotFound        = errors.New("sale not found")
	ErrForeignKeyViolation = errors.New("referenced record does not exist")
	ErrLockTimeout         = errors.New("timed out waiting for a stock lock")
)

// mysql ER_LOCK_WAIT_TIMEOUT
const errLockWaitTimeout = 1205

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// classify turns storage level failures into the errors callers switch on.
// Anything it does not recognise is returned unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrForeignKeyViolation, err)
	case isLockTimeout(err):
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	return err
}

func isLockTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errLockWaitTimeout
}
