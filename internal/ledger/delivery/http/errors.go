package http

import (
	"errors"
	"net/http"

	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/labstack/echo/v4"
)

// respondError maps service errors onto status codes. Unexpected errors are
// logged and hidden behind message.
func respondError(c echo.Context, log *logger.Logger, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPositionNotFound), errors.Is(err, service.ErrPortfolioNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientQuantity):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.ErrorContext(c.Request().Context(), message, logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": message})
	}
}
