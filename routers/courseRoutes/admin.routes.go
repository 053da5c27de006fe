package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes registers quiz authoring and roster routes for
// instructors and admins.
func SetupAdminCourseRoutes(app *fiber.App, h *controllers.Handler) {
	staff := middleware.RequireRole(middleware.RoleInstructor, middleware.RoleAdmin)

	adminGroup := app.Group("/admin/course")
	adminGroup.Post("/:course_id/quiz", middleware.JWTMiddleware, staff, validators.CourseID(), validators.QuizBody(), h.AdminCreateQuiz)
	adminGroup.Get("/:course_id/quizzes", middleware.JWTMiddleware, staff, validators.CourseID(), h.ListCourseQuizzes)
	adminGroup.Get("/:course_id/enrollments", middleware.JWTMiddleware, staff, validators.CourseID(), validators.EnrollmentQuery(), h.AdminGetCourseEnrollments)
	adminGroup.Get("/:course_id/completed-students", middleware.JWTMiddleware, staff, validators.CourseID(), validators.EnrollmentQuery(), h.AdminGetCompletedStudents)

	app.Get("/admin/enrollments", middleware.JWTMiddleware, staff, validators.EnrollmentQuery(), h.AdminGetInstructorEnrollments)
	app.Get("/admin/student/:student_id/progress", middleware.JWTMiddleware, staff, validators.StudentID(), h.AdminGetStudentProgress)

	quizGroup := app.Group("/admin/quiz")
	quizGroup.Get("/:quiz_id", middleware.JWTMiddleware, staff, validators.QuizID(), h.AdminGetQuiz)
	quizGroup.Put("/:quiz_id", middleware.JWTMiddleware, staff, validators.QuizID(), validators.QuizBody(), h.AdminUpdateQuiz)
	quizGroup.Delete("/:quiz_id", middleware.JWTMiddleware, staff, validators.QuizID(), h.AdminDeleteQuiz)
}
