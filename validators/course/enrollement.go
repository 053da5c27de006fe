package courseValidator

import (
	"coursehub/middleware"
	"coursehub/models/course"
	"coursehub/services/enrollment"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WatchTimeRequest is the body of POST /course/lesson/:lesson_id/watch-time.
type WatchTimeRequest struct {
	Minutes *float64 `json:"minutes" validate:"required,gte=0"`
}

func UpdateWatchTime() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(WatchTimeRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("minutes", *reqData.Minutes)
		return c.Next()
	}
}

// EnrollmentQueryRequest is the query string of the staff roster routes.
type EnrollmentQueryRequest struct {
	Page   int    `query:"page" json:"page" validate:"omitempty,gte=1"`
	Limit  int    `query:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED CANCELLED EXPIRED"`
}

func EnrollmentQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(EnrollmentQueryRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Status = strings.ToUpper(strings.TrimSpace(reqData.Status))

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("enrollmentQuery", enrollment.Query{
			Status: course.EnrollmentStatus(reqData.Status),
			Page:   reqData.Page,
			Limit:  reqData.Limit,
		})
		return c.Next()
	}
}
