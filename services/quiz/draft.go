package quiz

import (
	"strings"

	"coursehub/models/course"
	"coursehub/utils/apperror"

	"github.com/go-playground/validator/v10"
)

// QuizDraft is the full authoring payload. UpdateQuiz replaces everything the
// quiz owns with what the draft carries.
type QuizDraft struct {
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description"`
	Duration     int             `json:"duration" validate:"gte=0"`
	PassingScore int             `json:"passing_score" validate:"gte=0,lte=100"`
	MaxAttempts  int             `json:"max_attempts" validate:"gte=0"`
	Questions    []QuestionDraft `json:"questions" validate:"dive"`
}

type QuestionDraft struct {
	Text          string              `json:"text"`
	Type          course.QuestionType `json:"type"`
	Points        int                 `json:"points"`
	CorrectAnswer string              `json:"correct_answer"`
	Options       []OptionDraft       `json:"options"`
}

type OptionDraft struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

var validate = validator.New()

func (d QuizDraft) maxAttempts() int {
	if d.MaxAttempts <= 0 {
		return course.DefaultMaxAttempts
	}
	return d.MaxAttempts
}

// buildQuestions turns the draft into unsaved questions. Blank questions and
// blank options are dropped; a multiple_choice question that keeps no correct
// option is rejected.
func buildQuestions(d QuizDraft) ([]course.Question, error) {
	if err := validate.Struct(d); err != nil {
		return nil, apperror.Wrap(apperror.ValidationFailed, err, "invalid quiz")
	}

	out := make([]course.Question, 0, len(d.Questions))
	for i, qd := range d.Questions {
		if strings.TrimSpace(qd.Text) == "" {
			continue
		}
		q := course.Question{
			Text:          qd.Text,
			Type:          qd.Type,
			Points:        qd.Points,
			CorrectAnswer: qd.CorrectAnswer,
			OrderIndex:    len(out) + 1,
		}
		if q.Points < 1 {
			q.Points = course.DefaultQuestionPoints
		}
		if q.IsMultipleChoice() {
			for _, od := range qd.Options {
				if strings.TrimSpace(od.Text) == "" {
					continue
				}
				q.Options = append(q.Options, course.Option{
					Text:       od.Text,
					IsCorrect:  od.IsCorrect,
					OrderIndex: len(q.Options) + 1,
				})
			}
			if !q.HasCorrectOption() {
				return nil, apperror.Validationf("question %d is multiple_choice but has no correct option", i+1)
			}
		}
		out = append(out, q)
	}
	return out, nil
}
