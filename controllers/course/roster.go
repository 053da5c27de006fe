package controllers

import (
	"coursehub/middleware"
	"coursehub/models/course"
	"coursehub/services/enrollment"

	"github.com/gofiber/fiber/v2"
)

// AdminGetCourseEnrollments pages through a course's enrollments, optionally
// filtered by status.
func (h *Handler) AdminGetCourseEnrollments(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	q, _ := c.Locals("enrollmentQuery").(enrollment.Query)

	page, err := h.Enrollments.ListByCourse(c.UserContext(), courseID, q)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", page)
}

// AdminGetCompletedStudents lists who finished the course.
func (h *Handler) AdminGetCompletedStudents(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	q, _ := c.Locals("enrollmentQuery").(enrollment.Query)
	q.Status = course.EnrollmentCompleted

	page, err := h.Enrollments.ListByCourse(c.UserContext(), courseID, q)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completed students fetched successfully!", page)
}

// AdminGetInstructorEnrollments covers every course the caller owns.
func (h *Handler) AdminGetInstructorEnrollments(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	q, _ := c.Locals("enrollmentQuery").(enrollment.Query)

	page, err := h.Enrollments.ListByInstructor(c.UserContext(), userID, q)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", page)
}

func (h *Handler) AdminGetStudentProgress(c *fiber.Ctx) error {
	studentID := c.Locals("studentID").(uint)
	ctx := c.UserContext()

	summaries, err := h.Enrollments.StudentSummaries(ctx, studentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	attempts, err := h.Engine.ListAttemptsByStudent(ctx, studentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	passed := 0
	for _, a := range attempts {
		if a.Status == course.AttemptPassed {
			passed++
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Student progress fetched successfully!", fiber.Map{
		"student_id":      studentID,
		"course_progress": summaries,
		"quiz_summary": fiber.Map{
			"total_attempts":  len(attempts),
			"passed_attempts": passed,
		},
	})
}
