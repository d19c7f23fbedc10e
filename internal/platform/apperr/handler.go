package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EchoHandler returns an echo HTTPErrorHandler that maps service errors
// to JSON responses. Unclassified errors become a generic 500 and are
// logged with their cause.
func EchoHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		if e, ok := As(err); ok {
			status = e.Status()
			message = e.Message
			if e.Kind == KindInternal || e.Kind == KindUnavailable {
				log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
			}
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, ErrorResponse{Code: status, Message: message})
	}
}
