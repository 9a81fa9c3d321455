package errors

import "net/http"

var ErrOfferAcceptanceFailed = &Exception{
	Code:       "offer_acceptance_failed",
	Message:    "offer acceptance failed",
	StatusCode: http.StatusInternalServerError,
}
