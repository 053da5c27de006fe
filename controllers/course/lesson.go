package controllers

import (
	"coursehub/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) MarkLessonComplete(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	e, err := h.lessonEnrollment(c, userID, lessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	p, err := h.Tracker.MarkCompleted(c.UserContext(), e.ID, lessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as complete!", p)
}

func (h *Handler) UpdateWatchTime(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)
	minutes := c.Locals("minutes").(float64)

	e, err := h.lessonEnrollment(c, userID, lessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	p, err := h.Tracker.UpdateWatchTime(c.UserContext(), e.ID, lessonID, minutes)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Watch time updated!", p)
}
