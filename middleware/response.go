package middleware

import (
	"errors"
	"log"

	"coursehub/utils/apperror"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  false,
		"message": "Validation failed!",
		"code":    apperror.ValidationFailed,
		"data":    fields,
	})
}

// StatusFor maps an engine failure kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.NotFound:
		return fiber.StatusNotFound
	case apperror.NotEnrolled:
		return fiber.StatusForbidden
	case apperror.AttemptLimitExceeded, apperror.AttemptClosed, apperror.AlreadyEnrolled, apperror.Conflict:
		return fiber.StatusConflict
	case apperror.ValidationFailed:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse renders err in the response envelope with a "code" naming the
// failure kind. Untyped errors are logged and hidden behind a generic 500.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Printf("[HTTP] %s %s request=%v: %v", c.Method(), c.Path(), c.Locals("requestId"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  false,
			"message": "Something went wrong!",
			"code":    "INTERNAL",
			"data":    nil,
		})
	}
	return c.Status(StatusFor(appErr.Kind)).JSON(fiber.Map{
		"status":  false,
		"message": appErr.Message,
		"code":    appErr.Kind,
		"data":    nil,
	})
}
