package sqlbridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Error is the only error type this layer surfaces for operational
// failures: a guard tripping before any engine call, or an engine
// failure wrapped with its vendor code. Anything else propagates
// unchanged.
type Error struct {
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// guardErr builds a precondition failure, raised before touching the engine.
func guardErr(msg string) error {
	return &Error{Message: msg}
}

// wrapEngineErr wraps a failure reported by the database engine,
// attaching the vendor error code when the driver exposes one.
// Context cancellation is not an engine failure and passes through.
func wrapEngineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{
			Message: fmt.Sprintf("database %s error", op),
			Code:    string(pqErr.Code),
			Err:     err,
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return &Error{
			Message: fmt.Sprintf("database %s error", op),
			Code:    strconv.Itoa(int(myErr.Number)),
			Err:     err,
		}
	}

	return &Error{
		Message: fmt.Sprintf("database %s error", op),
		Err:     err,
	}
}
