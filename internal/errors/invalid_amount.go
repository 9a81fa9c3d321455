package errors

import "net/http"

var ErrInvalidAmount = &Exception{
	Code:       "invalid_amount",
	Message:    "amount must be a positive number",
	StatusCode: http.StatusBadRequest,
}
