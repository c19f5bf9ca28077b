// Package apperr holds the error-code taxonomy shared by the gateway and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeServer       Code = "SERVER_ERROR"
	CodeDuplicate    Code = "DUPLICATE_ERROR"
	CodeRateLimit    Code = "RATE_LIMIT"
	CodeUnknown      Code = "UNKNOWN"
)

// Error is a domain failure carrying a client-facing code.
type Error struct {
	Code    Code
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	e := &Error{Code: code, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Validation(message string) *Error { return New(CodeValidation, message) }

func Duplicate(message string) *Error { return New(CodeDuplicate, message) }

func RateLimited(message string) *Error { return New(CodeRateLimit, message) }

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf reports the code of err. Errors outside the taxonomy are SERVER_ERROR.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeServer
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
