package errors

import "net/http"

var ErrOfferNotFound = &Exception{
	Code:       "offer_not_found",
	Message:    "offer not found",
	StatusCode: http.StatusNotFound,
}
