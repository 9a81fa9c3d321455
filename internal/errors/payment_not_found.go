package errors

import "net/http"

var ErrPaymentNotFound = &Exception{
	Code:       "payment_not_found",
	Message:    "no payment exists for this task",
	StatusCode: http.StatusNotFound,
}
