package errors

import "net/http"

var ErrUnsupportedCurrency = &Exception{
	Code:       "unsupported_currency",
	Message:    "currency is not supported",
	StatusCode: http.StatusBadRequest,
}
