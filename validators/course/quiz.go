package courseValidator

import (
	"coursehub/middleware"
	"coursehub/services/quiz"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// QuizRequest is the authoring body for create and update. LessonID is only
// read on create.
type QuizRequest struct {
	quiz.QuizDraft
	LessonID *uint `json:"lesson_id" validate:"omitempty,gt=0"`
}

type SubmitRequest struct {
	Answers map[string]string `json:"answers"`
}

func QuizBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = strings.TrimSpace(reqData.Title)
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("quizRequest", reqData)
		return c.Next()
	}
}

// SubmitAnswers turns {"answers": {"<question id>": "<text>"}} into a
// map[uint]string under Locals("answers").
func SubmitAnswers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		answers := make(map[uint]string, len(reqData.Answers))
		for key, text := range reqData.Answers {
			id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
			if err != nil || id == 0 {
				errors["answers."+key] = "Question ID must be a positive integer!"
				continue
			}
			answers[uint(id)] = text
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("answers", answers)
		return c.Next()
	}
}
