package errors

import "net/http"

var ErrTokenIDRequired = &Exception{
	Message:    "token id is required",
	StatusCode: http.StatusBadRequest,
}
