package session

import (
	"errors"
	"fmt"
)

// Error codes for session operations.
const (
	ErrCodeConfiguration = "CONFIGURATION_FAILURE"
	ErrCodeTransport     = "TRANSPORT_FAILURE"
	ErrCodePublish       = "PUBLISH_FAILURE"
	ErrCodeNotConnected  = "NOT_CONNECTED"
)

// Error represents a session error with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err is a session error with code.
func IsCode(err error, code string) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}
