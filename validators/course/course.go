package courseValidator

import (
	"coursehub/middleware"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErrors flattens validator output into the field -> message map
// ValidationErrorResponse expects.
func validationErrors(err error) map[string]string {
	out := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = field + " is required!"
		case "gte", "min":
			out[field] = field + " must be at least " + fe.Param() + "!"
		case "lte", "max":
			out[field] = field + " must be at most " + fe.Param() + "!"
		default:
			out[field] = field + " is invalid!"
		}
	}
	return out
}

// paramID parses a positive integer route param and stores it as uint under
// local.
func paramID(param, local, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params(param))
		if raw == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, label+" is required!", nil)
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+label+"!", nil)
		}

		c.Locals(local, uint(id))
		return c.Next()
	}
}

func CourseID() fiber.Handler { return paramID("course_id", "courseID", "Course ID") }

func QuizID() fiber.Handler { return paramID("quiz_id", "quizID", "Quiz ID") }

func AttemptID() fiber.Handler { return paramID("attempt_id", "attemptID", "Attempt ID") }

func LessonID() fiber.Handler { return paramID("lesson_id", "lessonID", "Lesson ID") }

func EnrollmentID() fiber.Handler { return paramID("enrollment_id", "enrollmentID", "Enrollment ID") }

func StudentID() fiber.Handler { return paramID("student_id", "studentID", "Student ID") }
