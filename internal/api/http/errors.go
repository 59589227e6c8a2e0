package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coord-weather/internal/weather"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, weather.ErrProvider):
		if pe, ok := weather.AsProviderError(err); ok && pe.Timeout {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders {"error": "..."} with the status from StatusFor.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(errorResponse{Error: err.Error()})
}
