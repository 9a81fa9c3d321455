package errors

import (
	"errors"
	"net/http"
)

// Exception is a domain error carrying the HTTP status it maps to.
// Two Exceptions match under errors.Is when their codes are equal, so
// derived instances (Wrap, constructors) still compare against the
// package-level sentinels.
type Exception struct {
	Code       string
	Message    string
	StatusCode int
	cause      error
}

func (e *Exception) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Exception) Unwrap() error {
	return e.cause
}

func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of the exception carrying the underlying cause.
func (e *Exception) Wrap(cause error) *Exception {
	return &Exception{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		cause:      cause,
	}
}

// WithMessage returns a copy of the exception with a more specific message.
func (e *Exception) WithMessage(message string) *Exception {
	return &Exception{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		cause:      e.cause,
	}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
