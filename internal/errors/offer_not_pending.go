package errors

import "net/http"

var ErrOfferNotPending = &Exception{
	Code:       "offer_not_pending",
	Message:    "offer has already been resolved",
	StatusCode: http.StatusConflict,
}
