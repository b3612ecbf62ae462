// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Map converts repo/infra errors into echo HTTP errors.
// Keeps handler layer clean by centralizing error mapping.
//
// Duplicate-key conflicts never reach this function: they are absorbed
// inside the repositories as idempotent no-ops.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, ErrInvalidOperation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")

	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable, retry")

	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(499, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// InvalidArgument creates an HTTP 400 error.
// Use this in handler layer for bad input validation.
func InvalidArgument(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
