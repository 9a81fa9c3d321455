package errors

import "net/http"

var ErrForbiddenSystemTransition = &Exception{
	Code:       "forbidden_system_transition",
	Message:    "transition is reserved for the system",
	StatusCode: http.StatusForbidden,
}
