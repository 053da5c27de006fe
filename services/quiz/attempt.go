package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"coursehub/database"
	"coursehub/models/course"
	"coursehub/services/progress"
	"coursehub/utils/apperror"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// startRetries bounds how often StartAttempt retries after losing an
// attempt-number race to another process.
const startRetries = 3

// Engine runs the attempt lifecycle: in_progress, then passed or failed once
// submitted. Scored attempts never change again.
type Engine struct {
	DB         *gorm.DB
	Aggregator *progress.Aggregator
	Now        func() time.Time
}

func NewEngine(db *gorm.DB, agg *progress.Aggregator) *Engine {
	return &Engine{DB: db, Aggregator: agg, Now: time.Now}
}

func effectiveMaxAttempts(q course.Quiz) int {
	if q.MaxAttempts <= 0 {
		return course.DefaultMaxAttempts
	}
	return q.MaxAttempts
}

// StartAttempt opens the next numbered attempt for the student. Numbering and
// the limit check run under the enrollment lock; the unique index on
// (student, quiz, attempt_number) catches writers outside this process.
func (e *Engine) StartAttempt(ctx context.Context, quizID, studentID uint) (*course.QuizAttempt, error) {
	var q course.Quiz
	if err := e.DB.WithContext(ctx).First(&q, quizID).Error; err != nil {
		return nil, quizLoadError(err, quizID)
	}
	enr, err := e.enrollmentFor(ctx, studentID, q.CourseID)
	if err != nil {
		return nil, err
	}

	var out course.QuizAttempt
	err = e.Aggregator.Serialize(enr.ID, func() error {
		lessonIDs, err := e.Aggregator.CurrentLessons(ctx, enr.ID)
		if err != nil {
			return err
		}

		for try := 1; ; try++ {
			err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				a, err := e.insertAttempt(tx, q, enr)
				if err != nil {
					return err
				}
				if _, err := e.Aggregator.RecomputeTx(ctx, tx, enr.ID, lessonIDs); err != nil {
					return err
				}
				out = *a
				return nil
			})
			if err == nil || !database.IsUniqueViolation(err) {
				return err
			}
			if try >= startRetries {
				return apperror.Wrap(apperror.Conflict, err, "could not allocate an attempt number for quiz %d", q.ID)
			}
			log.Printf("[QUIZ-ATTEMPT] attempt number taken, retrying. quiz=%d student=%d try=%d", q.ID, studentID, try)
		}
	})
	if err != nil {
		log.Printf("[QUIZ-ATTEMPT] start failed. quiz=%d student=%d err=%v", quizID, studentID, err)
		return nil, err
	}

	log.Printf("[QUIZ-ATTEMPT] started attempt=%d quiz=%d student=%d number=%d/%d",
		out.ID, q.ID, studentID, out.AttemptNumber, effectiveMaxAttempts(q))
	return &out, nil
}

func (e *Engine) insertAttempt(tx *gorm.DB, q course.Quiz, enr *course.Enrollment) (*course.QuizAttempt, error) {
	var locked course.Enrollment
	if err := database.ForUpdate(tx).Select("id").First(&locked, enr.ID).Error; err != nil {
		return nil, fmt.Errorf("lock enrollment %d: %w", enr.ID, err)
	}

	var prior int64
	if err := tx.Unscoped().Model(&course.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", enr.StudentID, q.ID).
		Count(&prior).Error; err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	number := int(prior) + 1
	if limit := effectiveMaxAttempts(q); number > limit {
		return nil, apperror.New(apperror.AttemptLimitExceeded,
			"student %d has used all %d attempts at quiz %d", enr.StudentID, limit, q.ID)
	}

	a := course.QuizAttempt{
		QuizID:        q.ID,
		StudentID:     enr.StudentID,
		EnrollmentID:  enr.ID,
		AttemptNumber: number,
		Status:        course.AttemptInProgress,
		StartedAt:     e.Now(),
	}
	if err := tx.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	return &a, nil
}

// SubmitAttempt grades answers (question id to answer text) against every
// question of the quiz. Unanswered questions score zero and leave no
// StudentAnswer. Answers, score and the enrollment recompute commit together.
func (e *Engine) SubmitAttempt(ctx context.Context, attemptID uint, answers map[uint]string) (*course.QuizAttempt, error) {
	var head course.QuizAttempt
	if err := e.DB.WithContext(ctx).Select("id", "enrollment_id").First(&head, attemptID).Error; err != nil {
		return nil, attemptLoadError(err, attemptID)
	}

	var out course.QuizAttempt
	err := e.Aggregator.Serialize(head.EnrollmentID, func() error {
		lessonIDs, err := e.Aggregator.CurrentLessons(ctx, head.EnrollmentID)
		if err != nil {
			return err
		}

		return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var a course.QuizAttempt
			if err := database.ForUpdate(tx).First(&a, attemptID).Error; err != nil {
				return attemptLoadError(err, attemptID)
			}
			if a.IsScored() {
				return apperror.New(apperror.AttemptClosed, "attempt %d was already submitted", a.ID)
			}

			var q course.Quiz
			if err := withQuestions(tx).First(&q, a.QuizID).Error; err != nil {
				return quizLoadError(err, a.QuizID)
			}

			if err := e.score(tx, &a, q, answers); err != nil {
				return err
			}
			if _, err := e.Aggregator.RecomputeTx(ctx, tx, a.EnrollmentID, lessonIDs); err != nil {
				return err
			}
			out = a
			return nil
		})
	})
	if err != nil {
		log.Printf("[QUIZ-ATTEMPT] submit failed. attempt=%d err=%v", attemptID, err)
		return nil, err
	}

	log.Printf("[QUIZ-ATTEMPT] scored attempt=%d quiz=%d score=%d/%d percentage=%d status=%s",
		out.ID, out.QuizID, out.Score, out.MaxScore, out.Percentage, out.Status)
	return &out, nil
}

func (e *Engine) score(tx *gorm.DB, a *course.QuizAttempt, q course.Quiz, answers map[uint]string) error {
	var (
		total, maxScore int
		recorded        []course.StudentAnswer
		results         = make([]course.QuestionResult, 0, len(q.Questions))
	)
	for _, question := range q.Questions {
		maxScore += question.Points
		res := course.QuestionResult{QuestionID: question.ID, Type: question.Type, Points: question.Points}

		text, ok := answers[question.ID]
		if ok {
			res.Answered = true
			res.IsCorrect = Grade(question, text)
			if res.IsCorrect {
				res.PointsEarned = question.Points
				total += question.Points
			}
			recorded = append(recorded, course.StudentAnswer{
				QuizAttemptID: a.ID,
				QuestionID:    question.ID,
				AnswerText:    text,
				IsCorrect:     res.IsCorrect,
				PointsEarned:  res.PointsEarned,
			})
		}
		results = append(results, res)
	}

	if len(recorded) > 0 {
		if err := tx.Create(&recorded).Error; err != nil {
			return fmt.Errorf("save answers of attempt %d: %w", a.ID, err)
		}
	}

	breakdown, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	now := e.Now()
	a.Score = total
	a.MaxScore = maxScore
	a.Percentage = percentage(total, maxScore)
	a.Status = course.AttemptFailed
	if a.Percentage >= q.PassingScore {
		a.Status = course.AttemptPassed
	}
	a.CompletedAt = &now
	a.Breakdown = datatypes.JSON(breakdown)
	a.StudentAnswers = recorded

	if err := tx.Model(a).Omit("StudentAnswers").Updates(map[string]interface{}{
		"score":        a.Score,
		"max_score":    a.MaxScore,
		"percentage":   a.Percentage,
		"status":       a.Status,
		"completed_at": a.CompletedAt,
		"breakdown":    a.Breakdown,
	}).Error; err != nil {
		return fmt.Errorf("save attempt %d: %w", a.ID, err)
	}
	return nil
}

// GetAttempt loads the attempt with its recorded answers.
func (e *Engine) GetAttempt(ctx context.Context, attemptID uint) (*course.QuizAttempt, error) {
	var a course.QuizAttempt
	if err := e.DB.WithContext(ctx).
		Preload("StudentAnswers", func(db *gorm.DB) *gorm.DB { return db.Order("question_id asc") }).
		First(&a, attemptID).Error; err != nil {
		return nil, attemptLoadError(err, attemptID)
	}
	return &a, nil
}

func (e *Engine) ListAttemptsByEnrollment(ctx context.Context, enrollmentID uint) ([]course.QuizAttempt, error) {
	var out []course.QuizAttempt
	if err := e.DB.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("started_at asc, id asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list attempts of enrollment %d: %w", enrollmentID, err)
	}
	return out, nil
}

func (e *Engine) ListAttemptsForStudent(ctx context.Context, quizID, studentID uint) ([]course.QuizAttempt, error) {
	var out []course.QuizAttempt
	if err := e.DB.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("attempt_number asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return out, nil
}

// ListAttemptsByStudent covers every quiz the student has tried.
func (e *Engine) ListAttemptsByStudent(ctx context.Context, studentID uint) ([]course.QuizAttempt, error) {
	var out []course.QuizAttempt
	if err := e.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("started_at asc, id asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list attempts of student %d: %w", studentID, err)
	}
	return out, nil
}

// RemainingAttempts is never negative.
func (e *Engine) RemainingAttempts(ctx context.Context, quizID, studentID uint) (int, error) {
	var q course.Quiz
	if err := e.DB.WithContext(ctx).Select("id", "max_attempts").First(&q, quizID).Error; err != nil {
		return 0, quizLoadError(err, quizID)
	}
	var used int64
	if err := e.DB.WithContext(ctx).Unscoped().Model(&course.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&used).Error; err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	left := effectiveMaxAttempts(q) - int(used)
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (e *Engine) enrollmentFor(ctx context.Context, studentID, courseID uint) (*course.Enrollment, error) {
	var enr course.Enrollment
	if err := e.DB.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotEnrolled, "student %d is not enrolled in course %d", studentID, courseID)
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	return &enr, nil
}

func attemptLoadError(err error, attemptID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFoundf("attempt %d not found", attemptID)
	}
	return fmt.Errorf("load attempt %d: %w", attemptID, err)
}
