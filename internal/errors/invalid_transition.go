package errors

import (
	"fmt"
	"net/http"
)

var ErrInvalidTransition = &Exception{
	Code:       "invalid_transition",
	Message:    "invalid status transition",
	StatusCode: http.StatusUnprocessableEntity,
}

// NewInvalidTransition reports the source status and the attempted target.
func NewInvalidTransition(from, to string) *Exception {
	return ErrInvalidTransition.WithMessage(
		fmt.Sprintf("invalid status transition from %q to %q", from, to),
	)
}
