package errors

import "net/http"

var ErrNumberGenerationFailed = &Exception{
	Message:    "failed to generate token number",
	StatusCode: http.StatusServiceUnavailable,
}
