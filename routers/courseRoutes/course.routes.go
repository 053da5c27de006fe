package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes registers the student-facing enrollment, quiz and lesson routes.
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler) {
	userGroup := app.Group("/course")

	// Enrollment
	userGroup.Post("/:course_id/enroll", middleware.JWTMiddleware, validators.CourseID(), h.EnrollInCourse)
	userGroup.Get("/enrollment/:enrollment_id/progress", middleware.JWTMiddleware, validators.EnrollmentID(), h.GetEnrollmentProgress)

	// Quizzes
	userGroup.Get("/:course_id/quizzes", middleware.JWTMiddleware, validators.CourseID(), h.ListCourseQuizzes)
	userGroup.Get("/quiz/:quiz_id", middleware.JWTMiddleware, validators.QuizID(), h.GetQuiz)
	userGroup.Post("/quiz/:quiz_id/attempt", middleware.JWTMiddleware, validators.QuizID(), h.StartAttempt)
	userGroup.Post("/attempt/:attempt_id/submit", middleware.JWTMiddleware, validators.AttemptID(), validators.SubmitAnswers(), h.SubmitAttempt)
	userGroup.Get("/attempt/:attempt_id", middleware.JWTMiddleware, validators.AttemptID(), h.GetAttempt)

	// Lesson progress
	userGroup.Post("/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.LessonID(), h.MarkLessonComplete)
	userGroup.Post("/lesson/:lesson_id/watch-time", middleware.JWTMiddleware, validators.LessonID(), validators.UpdateWatchTime(), h.UpdateWatchTime)

	userEnrollGroup := app.Group("/user")
	userEnrollGroup.Get("/enrollments", middleware.JWTMiddleware, h.GetEnrollments)
}
