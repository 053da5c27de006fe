package course

import (
	"strings"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

const (
	DefaultMaxAttempts    = 3
	DefaultQuestionPoints = 1
)

// Quiz belongs to one course and is optionally bound to a single lesson.
type Quiz struct {
	gorm.Model
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	LessonID       *uint      `json:"lesson_id" gorm:"index"`
	Title          string     `json:"title" gorm:"not null"`
	Description    string     `json:"description" gorm:"type:text"`
	Duration       int        `json:"duration" gorm:"not null;default:0"`     // minutes, advisory only
	PassingScore   int        `json:"passing_score" gorm:"not null"`          // percent 0-100
	MaxAttempts    int        `json:"max_attempts" gorm:"not null;default:3"` // per student
	TotalQuestions int        `json:"total_questions" gorm:"not null;default:0"`
	Questions      []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

// Question belongs to one quiz. CorrectAnswer is only read for true_false and
// short_answer; multiple_choice questions are graded against their Options.
type Question struct {
	gorm.Model
	QuizID        uint         `json:"quiz_id" gorm:"index;not null"`
	Text          string       `json:"text" gorm:"type:text;not null"`
	Type          QuestionType `json:"type" gorm:"size:32;not null"`
	Points        int          `json:"points" gorm:"not null;default:1"`
	CorrectAnswer string       `json:"correct_answer,omitempty" gorm:"type:text"`
	OrderIndex    int          `json:"order_index" gorm:"default:0"`
	Options       []Option     `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (q Question) IsMultipleChoice() bool { return q.Type == QuestionMultipleChoice }

// HasCorrectOption reports whether at least one option is flagged correct.
func (q Question) HasCorrectOption() bool {
	for _, o := range q.Options {
		if o.IsCorrect && strings.TrimSpace(o.Text) != "" {
			return true
		}
	}
	return false
}

type Option struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}
