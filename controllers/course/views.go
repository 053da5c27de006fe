package controllers

import (
	"coursehub/models/course"
)

// Student-facing quiz shapes. Correct answers and option flags are left out.

type StudentOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type StudentQuestion struct {
	ID      uint                `json:"id"`
	Text    string              `json:"text"`
	Type    course.QuestionType `json:"type"`
	Points  int                 `json:"points"`
	Options []StudentOption     `json:"options,omitempty"`
}

type StudentQuiz struct {
	ID                uint              `json:"id"`
	CourseID          uint              `json:"course_id"`
	LessonID          *uint             `json:"lesson_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Duration          int               `json:"duration"`
	PassingScore      int               `json:"passing_score"`
	MaxAttempts       int               `json:"max_attempts"`
	TotalQuestions    int               `json:"total_questions"`
	RemainingAttempts int               `json:"remaining_attempts"`
	Questions         []StudentQuestion `json:"questions"`
}

func studentQuiz(q *course.Quiz, remaining int) StudentQuiz {
	out := StudentQuiz{
		ID:                q.ID,
		CourseID:          q.CourseID,
		LessonID:          q.LessonID,
		Title:             q.Title,
		Description:       q.Description,
		Duration:          q.Duration,
		PassingScore:      q.PassingScore,
		MaxAttempts:       q.MaxAttempts,
		TotalQuestions:    q.TotalQuestions,
		RemainingAttempts: remaining,
		Questions:         make([]StudentQuestion, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		sq := StudentQuestion{ID: question.ID, Text: question.Text, Type: question.Type, Points: question.Points}
		for _, o := range question.Options {
			sq.Options = append(sq.Options, StudentOption{ID: o.ID, Text: o.Text})
		}
		out.Questions = append(out.Questions, sq)
	}
	return out
}
