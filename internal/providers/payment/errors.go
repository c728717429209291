package payment

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnavailable  = "UNAVAILABLE"
)

// Error is a provider failure with a stable code. CodeNotFound is a final
// answer and must not be retried; everything else is transient.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment_provider: %s (%s)", e.Message, e.Code)
}

func IsNotFound(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Code == CodeNotFound
}

// ErrorCode returns the provider error code, or CodeUnavailable for plain
// transport errors.
func ErrorCode(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return CodeUnavailable
}
