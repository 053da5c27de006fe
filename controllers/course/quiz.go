package controllers

import (
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) AdminCreateQuiz(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	req := c.Locals("quizRequest").(*validators.QuizRequest)

	q, err := h.Catalog.CreateQuiz(c.UserContext(), req.QuizDraft, courseID, req.LessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", q)
}

func (h *Handler) AdminUpdateQuiz(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(uint)
	req := c.Locals("quizRequest").(*validators.QuizRequest)

	q, err := h.Catalog.UpdateQuiz(c.UserContext(), quizID, req.QuizDraft)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz updated successfully!", q)
}

func (h *Handler) AdminDeleteQuiz(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(uint)

	if err := h.Catalog.DeleteQuiz(c.UserContext(), quizID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz deleted successfully!", nil)
}

// AdminGetQuiz returns the quiz with answers for authoring screens.
func (h *Handler) AdminGetQuiz(c *fiber.Ctx) error {
	q, err := h.Catalog.GetQuiz(c.UserContext(), c.Locals("quizID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", q)
}

// GetQuiz is the student view: enrolled callers only, no answers.
func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	ctx := c.UserContext()

	q, err := h.Catalog.GetQuiz(ctx, c.Locals("quizID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if _, err := h.enrollmentOf(c, userID, q.CourseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	remaining, err := h.Engine.RemainingAttempts(ctx, q.ID, userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", studentQuiz(q, remaining))
}

func (h *Handler) ListCourseQuizzes(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	if !isStaff(role) {
		if _, err := h.enrollmentOf(c, userID, courseID); err != nil {
			return middleware.ErrorResponse(c, err)
		}
	}
	quizzes, err := h.Catalog.ListQuizzesByCourse(c.UserContext(), courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched successfully!", quizzes)
}
