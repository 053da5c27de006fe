package controllers

import (
	"coursehub/middleware"
	"coursehub/models/course"
	"coursehub/utils/apperror"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) StartAttempt(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	a, err := h.Engine.StartAttempt(c.UserContext(), c.Locals("quizID").(uint), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz attempt started!", a)
}

func (h *Handler) SubmitAttempt(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	attemptID := c.Locals("attemptID").(uint)
	answers := c.Locals("answers").(map[uint]string)

	if _, err := h.ownAttempt(c, userID, "", attemptID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	a, err := h.Engine.SubmitAttempt(c.UserContext(), attemptID, answers)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted successfully!", a)
}

func (h *Handler) GetAttempt(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	a, err := h.ownAttempt(c, userID, role, c.Locals("attemptID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempt fetched successfully!", a)
}

// ownAttempt hides other students' attempts behind NotFound. Staff can read
// any attempt when role is passed.
func (h *Handler) ownAttempt(c *fiber.Ctx, userID uint, role string, attemptID uint) (*course.QuizAttempt, error) {
	a, err := h.Engine.GetAttempt(c.UserContext(), attemptID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != userID && !isStaff(role) {
		return nil, apperror.NotFoundf("attempt %d not found", attemptID)
	}
	return a, nil
}
