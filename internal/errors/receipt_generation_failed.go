package errors

import "net/http"

var ErrReceiptGenerationFailed = &Exception{
	Code:       "receipt_generation_failed",
	Message:    "receipt generation failed",
	StatusCode: http.StatusBadGateway,
}
