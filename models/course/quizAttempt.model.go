package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptPassed     AttemptStatus = "passed"
	AttemptFailed     AttemptStatus = "failed"
)

// QuizAttempt is one run of a quiz by one student. The (student, quiz,
// attempt_number) index makes a duplicated attempt number a constraint error.
type QuizAttempt struct {
	gorm.Model
	QuizID         uint            `json:"quiz_id" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number,priority:2"`
	StudentID      uint            `json:"student_id" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number,priority:1"`
	EnrollmentID   uint            `json:"enrollment_id" gorm:"index;not null"`
	AttemptNumber  int             `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number,priority:3"`
	Score          int             `json:"score" gorm:"default:0"`      // points earned
	MaxScore       int             `json:"max_score" gorm:"default:0"`  // points available
	Percentage     int             `json:"percentage" gorm:"default:0"` // floor(score*100/max)
	Status         AttemptStatus   `json:"status" gorm:"size:16;not null;default:'in_progress'"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	Breakdown      datatypes.JSON  `json:"breakdown,omitempty"` // []QuestionResult, written on submit
	StudentAnswers []StudentAnswer `json:"student_answers,omitempty" gorm:"foreignKey:QuizAttemptID"`
}

func (a QuizAttempt) IsScored() bool { return a.Status == AttemptPassed || a.Status == AttemptFailed }

// QuestionResult is one entry of QuizAttempt.Breakdown.
type QuestionResult struct {
	QuestionID   uint         `json:"question_id"`
	Type         QuestionType `json:"type"`
	Points       int          `json:"points"`
	Answered     bool         `json:"answered"`
	IsCorrect    bool         `json:"is_correct"`
	PointsEarned int          `json:"points_earned"`
}

type StudentAnswer struct {
	gorm.Model
	QuizAttemptID uint   `json:"quiz_attempt_id" gorm:"index;not null"`
	QuestionID    uint   `json:"question_id" gorm:"index;not null"`
	AnswerText    string `json:"answer_text" gorm:"type:text"`
	IsCorrect     bool   `json:"is_correct" gorm:"default:false"`
	PointsEarned  int    `json:"points_earned" gorm:"default:0"`
}
