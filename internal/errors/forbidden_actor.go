package errors

import "net/http"

var ErrForbiddenActor = &Exception{
	Code:       "forbidden_actor",
	Message:    "caller is not allowed to perform this transition",
	StatusCode: http.StatusForbidden,
}
