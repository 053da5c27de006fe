package quiz

import (
	"strings"

	"coursehub/models/course"
)

// Grade reports whether answer is correct for q. Multiple choice compares
// against the correct options' text exactly; true_false ignores case;
// short_answer also ignores surrounding whitespace. Unknown types never match.
func Grade(q course.Question, answer string) bool {
	switch q.Type {
	case course.QuestionMultipleChoice:
		for _, o := range q.Options {
			if o.IsCorrect && o.Text == answer {
				return true
			}
		}
		return false
	case course.QuestionTrueFalse:
		return strings.EqualFold(q.CorrectAnswer, answer)
	case course.QuestionShortAnswer:
		return strings.EqualFold(strings.TrimSpace(q.CorrectAnswer), strings.TrimSpace(answer))
	default:
		return false
	}
}

// percentage truncates toward zero and is 0 for a quiz worth no points.
func percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return score * 100 / maxScore
}
