// Package progress folds lesson completion and quiz outcomes into an
// enrollment's overall percentage, and tracks per-lesson watch progress.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"coursehub/database"
	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/utils/apperror"
	"coursehub/utils/keylock"

	"gorm.io/gorm"
)

const (
	LessonWeight = 70.0
	QuizWeight   = 30.0
)

// Breakdown is the input and result of one recompute.
type Breakdown struct {
	EnrollmentID       uint    `json:"enrollment_id"`
	TotalLessons       int     `json:"total_lessons"`
	CompletedLessons   int     `json:"completed_lessons"`
	TotalQuizAttempts  int     `json:"total_quiz_attempts"`
	PassedQuizAttempts int     `json:"passed_quiz_attempts"`
	PassedAttemptRatio float64 `json:"passed_attempt_ratio"` // passed / all attempts, not per distinct quiz
	LessonShare        float64 `json:"lesson_share"`
	QuizShare          float64 `json:"quiz_share"`
	Progress           float64 `json:"progress"`
}

// Compute applies the weighting. Counts are attempts, so one failed and one
// passed attempt at the same quiz give a ratio of 0.5.
func Compute(totalLessons, completedLessons, totalAttempts, passedAttempts int) Breakdown {
	b := Breakdown{
		TotalLessons:       totalLessons,
		CompletedLessons:   completedLessons,
		TotalQuizAttempts:  totalAttempts,
		PassedQuizAttempts: passedAttempts,
	}
	if totalLessons > 0 {
		b.LessonShare = float64(completedLessons) / float64(totalLessons) * LessonWeight
	}
	if totalAttempts > 0 {
		b.PassedAttemptRatio = float64(passedAttempts) / float64(totalAttempts)
		b.QuizShare = b.PassedAttemptRatio * QuizWeight
	}
	b.Progress = b.LessonShare + b.QuizShare
	return b
}

// nextEnrollmentStatus never leaves COMPLETED while CompletionIsMonotonic holds.
func nextEnrollmentStatus(current course.EnrollmentStatus, progress float64) course.EnrollmentStatus {
	if progress >= 100 {
		return course.EnrollmentCompleted
	}
	if current == course.EnrollmentCompleted && !course.CompletionIsMonotonic {
		return course.EnrollmentActive
	}
	return current
}

// Aggregator recomputes enrollment progress. All work for one enrollment is
// serialized through Serialize so concurrent lesson and quiz updates cannot
// interleave their read-modify-write.
type Aggregator struct {
	DB      *gorm.DB
	Lessons lessons.Directory
	Now     func() time.Time

	locks *keylock.Map
}

func NewAggregator(db *gorm.DB, dir lessons.Directory) *Aggregator {
	return &Aggregator{DB: db, Lessons: dir, Now: time.Now, locks: keylock.New()}
}

func enrollmentKey(id uint) string { return "enrollment:" + strconv.FormatUint(uint64(id), 10) }

// Serialize runs fn while holding the per-enrollment lock.
func (a *Aggregator) Serialize(enrollmentID uint, fn func() error) error {
	return a.locks.Do(enrollmentKey(enrollmentID), fn)
}

// Recompute locks the enrollment, recomputes and persists its progress.
func (a *Aggregator) Recompute(ctx context.Context, enrollmentID uint) (*Breakdown, error) {
	var out *Breakdown
	err := a.Serialize(enrollmentID, func() error {
		lessonIDs, err := a.CurrentLessons(ctx, enrollmentID)
		if err != nil {
			return err
		}
		return a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			b, err := a.RecomputeTx(ctx, tx, enrollmentID, lessonIDs)
			out = b
			return err
		})
	})
	return out, err
}

// CurrentLessons returns the ids of the lessons the enrollment's course has
// right now. Call it before opening the transaction: the directory may be remote.
func (a *Aggregator) CurrentLessons(ctx context.Context, enrollmentID uint) ([]uint, error) {
	var e course.Enrollment
	if err := a.DB.WithContext(ctx).Select("id", "course_id").First(&e, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("enrollment %d not found", enrollmentID)
		}
		return nil, fmt.Errorf("load enrollment %d: %w", enrollmentID, err)
	}
	ls, err := a.Lessons.CourseLessons(ctx, e.CourseID)
	if err != nil {
		return nil, err
	}
	return lessons.IDs(ls), nil
}

// CountCompleted counts the enrollment's completed rows among lessonIDs.
func CountCompleted(db *gorm.DB, enrollmentID uint, lessonIDs []uint) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var n int64
	if err := db.Model(&course.LessonProgress{}).
		Where("enrollment_id = ? AND completed = ? AND lesson_id IN ?", enrollmentID, true, lessonIDs).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count completed lessons: %w", err)
	}
	return n, nil
}

// RecomputeTx does the recompute inside tx. The caller must hold the
// enrollment lock (see Serialize). Only progress rows of lessonIDs count, so
// rows left behind by deleted lessons never push the share past 70.
func (a *Aggregator) RecomputeTx(ctx context.Context, tx *gorm.DB, enrollmentID uint, lessonIDs []uint) (*Breakdown, error) {
	tx = tx.WithContext(ctx)

	var e course.Enrollment
	if err := database.ForUpdate(tx).First(&e, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("enrollment %d not found", enrollmentID)
		}
		return nil, fmt.Errorf("load enrollment %d: %w", enrollmentID, err)
	}

	completedLessons, err := CountCompleted(tx, e.ID, lessonIDs)
	if err != nil {
		return nil, err
	}
	var totalAttempts, passedAttempts int64
	if err := tx.Model(&course.QuizAttempt{}).
		Where("enrollment_id = ?", e.ID).
		Count(&totalAttempts).Error; err != nil {
		return nil, fmt.Errorf("count quiz attempts: %w", err)
	}
	if err := tx.Model(&course.QuizAttempt{}).
		Where("enrollment_id = ? AND status = ?", e.ID, course.AttemptPassed).
		Count(&passedAttempts).Error; err != nil {
		return nil, fmt.Errorf("count passed attempts: %w", err)
	}

	b := Compute(len(lessonIDs), int(completedLessons), int(totalAttempts), int(passedAttempts))
	b.EnrollmentID = e.ID

	updates := map[string]interface{}{
		"progress":          b.Progress,
		"completed_lessons": b.CompletedLessons,
		"total_lessons":     b.TotalLessons,
	}
	next := nextEnrollmentStatus(e.Status, b.Progress)
	if next != e.Status {
		updates["status"] = next
	}
	if next == course.EnrollmentCompleted && e.CompletedAt == nil {
		updates["completed_at"] = a.Now()
	}
	if e.Status == course.EnrollmentCompleted && b.Progress < 100 {
		log.Printf("[PROGRESS] enrollment %d stays COMPLETED with progress %.2f", e.ID, b.Progress)
	}

	if err := tx.Model(&e).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("save enrollment %d progress: %w", e.ID, err)
	}

	log.Printf("[PROGRESS] enrollment=%d lessons=%d/%d attempts=%d/%d progress=%.2f status=%s",
		e.ID, b.CompletedLessons, b.TotalLessons, b.PassedQuizAttempts, b.TotalQuizAttempts, b.Progress, next)
	return &b, nil
}
