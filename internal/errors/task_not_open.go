package errors

import "net/http"

var ErrTaskNotOpen = &Exception{
	Code:       "task_not_open",
	Message:    "task is no longer open for offers",
	StatusCode: http.StatusConflict,
}
