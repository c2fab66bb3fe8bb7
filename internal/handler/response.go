package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type deletedCountResponse struct {
	Deleted int64 `json:"deleted"`
}

func writeServiceError(c echo.Context, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: vErr.Error()})
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "resource not found"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: "conflict"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, service.ErrQueueFull):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "translation queue is full"})
	case errors.Is(err, service.ErrAINotConfigured):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ai provider is not configured"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// Error returns a JSON error response with the given status and message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}
