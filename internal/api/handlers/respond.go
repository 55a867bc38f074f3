package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

// writeError maps the operational error taxonomy onto HTTP statuses.
// Anything unexpected surfaces as a generic 500 without detail leakage.
func writeError(c echo.Context, log logger.Logger, err error) error {
	var opErr *domain.OperationalError
	if errors.As(err, &opErr) {
		status := http.StatusInternalServerError
		switch opErr.Kind {
		case domain.ErrorValidation:
			status = http.StatusBadRequest
		case domain.ErrorNotFound:
			status = http.StatusNotFound
		case domain.ErrorAuthorization:
			status = http.StatusForbidden
		case domain.ErrorConflict:
			status = http.StatusConflict
		}
		return c.JSON(status, map[string]string{"error": opErr.Message})
	}

	log.Error("Unexpected error", "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

type listResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
