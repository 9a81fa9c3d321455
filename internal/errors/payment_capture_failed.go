package errors

import "net/http"

var ErrPaymentCaptureFailed = &Exception{
	Code:       "payment_capture_failed",
	Message:    "payment capture failed",
	StatusCode: http.StatusBadGateway,
}
