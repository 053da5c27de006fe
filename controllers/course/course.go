package controllers

import (
	"coursehub/middleware"
	"coursehub/models/course"
	"coursehub/services/enrollment"
	"coursehub/services/lessons"
	"coursehub/services/progress"
	"coursehub/services/quiz"
	"coursehub/utils/apperror"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the assessment and progress routes.
type Handler struct {
	Catalog     *quiz.Catalog
	Engine      *quiz.Engine
	Tracker     *progress.Tracker
	Enrollments *enrollment.Service
	Lessons     lessons.Directory
}

func caller(c *fiber.Ctx) (uint, string, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return 0, "", false
	}
	role, _ := c.Locals("role").(string)
	return userID, role, true
}

func isStaff(role string) bool {
	return role == middleware.RoleAdmin || role == middleware.RoleInstructor
}

// enrollmentOf resolves the caller's enrollment in courseID; a missing one is
// reported as NotEnrolled.
func (h *Handler) enrollmentOf(c *fiber.Ctx, userID, courseID uint) (*course.Enrollment, error) {
	e, err := h.Enrollments.Get(c.UserContext(), userID, courseID)
	if apperror.IsKind(err, apperror.NotFound) {
		return nil, apperror.New(apperror.NotEnrolled, "you are not enrolled in course %d", courseID)
	}
	return e, err
}

// lessonEnrollment resolves the caller's enrollment through the lesson's course.
func (h *Handler) lessonEnrollment(c *fiber.Ctx, userID, lessonID uint) (*course.Enrollment, error) {
	lesson, err := h.Lessons.Lesson(c.UserContext(), lessonID)
	if err != nil {
		return nil, err
	}
	return h.enrollmentOf(c, userID, lesson.CourseID)
}
