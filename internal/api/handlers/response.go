package handlers

import (
	"net/http"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Response is the envelope of every JSON API answer.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func fail(c echo.Context, status int, message string, details interface{}) error {
	return c.JSON(status, Response{Success: false, Error: message, Details: details})
}

// respondError maps domain errors onto status codes. Infrastructure failures are logged
// and surface as a flat 500 without internals.
func respondError(c echo.Context, log logger.Logger, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "invalid request", err.Error())
	case domain.IsNotFound(err):
		return fail(c, http.StatusNotFound, rootMessage(err), err.Error())
	case domain.IsStateConflict(err):
		return fail(c, http.StatusBadRequest, rootMessage(err), err.Error())
	case errors.As(err, &httpErr):
		return fail(c, httpErr.Code, http.StatusText(httpErr.Code), httpErr.Message)
	}

	log.Error("Request failed", "method", c.Request().Method, "path", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID), "error", err)
	return fail(c, http.StatusInternalServerError, "internal server error", nil)
}

func rootMessage(err error) string {
	return errors.Cause(err).Error()
}
