package errors

import "net/http"

var ErrStoreUnavailable = &Exception{
	Message:    "token store unavailable",
	StatusCode: http.StatusServiceUnavailable,
}
