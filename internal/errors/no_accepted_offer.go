package errors

import "net/http"

var ErrNoAcceptedOffer = &Exception{
	Code:       "no_accepted_offer",
	Message:    "task has no accepted offer",
	StatusCode: http.StatusConflict,
}
