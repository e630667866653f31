package errors

import "net/http"

var ErrValidationFailed = &Exception{
	Message:    "validation failed",
	StatusCode: http.StatusBadRequest,
}

func NewValidationError(fields map[string]string) *Exception {
	return ErrValidationFailed.WithFields(fields)
}
