package quiz

import (
	"testing"

	"coursehub/models/course"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	mc := course.Question{
		Type: course.QuestionMultipleChoice,
		Options: []course.Option{
			{Text: "goroutine", IsCorrect: true},
			{Text: "thread", IsCorrect: false},
		},
	}
	tf := course.Question{Type: course.QuestionTrueFalse, CorrectAnswer: "True"}
	sa := course.Question{Type: course.QuestionShortAnswer, CorrectAnswer: " Channel "}

	tests := []struct {
		name   string
		q      course.Question
		answer string
		want   bool
	}{
		{"mc exact", mc, "goroutine", true},
		{"mc is case sensitive", mc, "Goroutine", false},
		{"mc wrong option", mc, "thread", false},
		{"mc unknown text", mc, "process", false},
		{"tf ignores case", tf, "true", true},
		{"tf does not trim", tf, " true", false},
		{"tf wrong", tf, "false", false},
		{"short answer trims and ignores case", sa, "  channel\t", true},
		{"short answer wrong", sa, "mutex", false},
		{"unknown type", course.Question{Type: "essay", CorrectAnswer: "x"}, "x", false},
		{"empty type", course.Question{CorrectAnswer: "x"}, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.q, tt.answer))
		})
	}
}

func TestPercentageTruncates(t *testing.T) {
	assert.Equal(t, 66, percentage(2, 3))
	assert.Equal(t, 33, percentage(1, 3))
	assert.Equal(t, 100, percentage(3, 3))
	assert.Equal(t, 0, percentage(0, 0))
}
