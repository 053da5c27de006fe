package controllers

import (
	"coursehub/middleware"
	"coursehub/utils/apperror"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	e, err := h.Enrollments.Enroll(c.UserContext(), userID, c.Locals("courseID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", e)
}

func (h *Handler) GetEnrollments(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollments, err := h.Enrollments.ListByStudent(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

func (h *Handler) GetEnrollmentProgress(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)
	ctx := c.UserContext()

	e, err := h.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if e.StudentID != userID && !isStaff(role) {
		return middleware.ErrorResponse(c, apperror.NotFoundf("enrollment %d not found", enrollmentID))
	}

	summary, err := h.Enrollments.Summary(ctx, e.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	lessonRows, err := h.Enrollments.ListLessonProgress(ctx, e.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	attempts, err := h.Engine.ListAttemptsByEnrollment(ctx, e.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"summary":  summary,
		"lessons":  lessonRows,
		"attempts": attempts,
	})
}
