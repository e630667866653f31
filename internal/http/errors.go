package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	dto "clinic-queue.com/clinic-queue/internal/data_models"
	apperrors "clinic-queue.com/clinic-queue/internal/errors"
)

// ErrorHandler renders every error in the response envelope. Causes are only
// exposed when debug is set.
func ErrorHandler(logger *logrus.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := dto.Response{Success: false}
		code := http.StatusInternalServerError

		if ex, ok := apperrors.AsException(err); ok {
			code = ex.StatusCode
			resp.Message = ex.Message
			resp.Errors = ex.Fields
			if debug && ex.Err != nil {
				resp.Error = ex.Err.Error()
			}
		} else if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			resp.Message = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok {
				resp.Message = msg
			}
		} else {
			resp.Message = "Internal Server Error"
			if debug {
				resp.Error = err.Error()
			}
		}

		entry := logger.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"status": code,
		})
		if code >= http.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithError(err).Debug("request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, resp)
		}
		if err != nil {
			logger.WithError(err).Error("failed to write error response")
		}
	}
}
