package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

// StatusForCode maps service error codes to HTTP statuses
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidInput, services.CodeInvalidJSON,
		services.CodeInvalidMethod, services.CodeInvalidDetector:
		return fiber.StatusBadRequest
	case services.CodeInsufficientData:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns a custom error handler middleware
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    services.CodeInternal,
			Message: "Internal Server Error",
		}

		var svcErr *services.ServiceError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			status = StatusForCode(svcErr.Code)
			detail.Code = svcErr.Code
			detail.Details = svcErr.Details
			if status < fiber.StatusInternalServerError {
				detail.Message = svcErr.Message
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			detail.Code = "ERROR"
			detail.Message = fiberErr.Message
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"error", err,
		}
		if id := logging.RequestID(c.UserContext()); id != "" {
			fields = append(fields, "request_id", id)
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
