package errors

import "net/http"

var ErrTokenNotFound = &Exception{
	Message:    "token not found",
	StatusCode: http.StatusNotFound,
}
