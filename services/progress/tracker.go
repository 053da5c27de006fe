package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"coursehub/database"
	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/utils/apperror"

	"gorm.io/gorm"
)

// Tracker records per-lesson watch time and completion. Every mutation ends
// with a recompute of the owning enrollment.
type Tracker struct {
	DB         *gorm.DB
	Lessons    lessons.Directory
	Aggregator *Aggregator
	Now        func() time.Time
}

func NewTracker(db *gorm.DB, dir lessons.Directory, agg *Aggregator) *Tracker {
	return &Tracker{DB: db, Lessons: dir, Aggregator: agg, Now: time.Now}
}

// MarkCompleted completes the lesson outright and credits its full duration.
func (tr *Tracker) MarkCompleted(ctx context.Context, enrollmentID, lessonID uint) (*course.LessonProgress, error) {
	lesson, err := tr.Lessons.Lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	return tr.mutate(ctx, enrollmentID, lessonID, func(p *course.LessonProgress, now time.Time) {
		p.Completed = true
		p.CompletedAt = &now
		p.WatchTime = float64(lesson.Duration)
	})
}

// UpdateWatchTime stores the reported minutes and completes the lesson once
// they reach 90% of its duration. The recompute runs even when nothing crossed
// the threshold.
func (tr *Tracker) UpdateWatchTime(ctx context.Context, enrollmentID, lessonID uint, minutes float64) (*course.LessonProgress, error) {
	if minutes < 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return nil, apperror.Validationf("watch time must be a non-negative number of minutes, got %v", minutes)
	}

	lesson, err := tr.Lessons.Lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	threshold := lesson.CompletionThreshold()

	return tr.mutate(ctx, enrollmentID, lessonID, func(p *course.LessonProgress, now time.Time) {
		p.WatchTime = minutes
		if !p.Completed && minutes >= threshold {
			p.Completed = true
			p.CompletedAt = &now
		}
	})
}

// Get returns the progress row for the pair. Lessons created after the
// enrollment have no row and yield NotFound.
func (tr *Tracker) Get(ctx context.Context, enrollmentID, lessonID uint) (*course.LessonProgress, error) {
	var p course.LessonProgress
	if err := tr.DB.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&p).Error; err != nil {
		return nil, progressLoadError(err, enrollmentID, lessonID)
	}
	return &p, nil
}

func (tr *Tracker) mutate(ctx context.Context, enrollmentID, lessonID uint, apply func(p *course.LessonProgress, now time.Time)) (*course.LessonProgress, error) {
	var out course.LessonProgress

	err := tr.Aggregator.Serialize(enrollmentID, func() error {
		lessonIDs, err := tr.Aggregator.CurrentLessons(ctx, enrollmentID)
		if err != nil {
			return err
		}

		return tr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p course.LessonProgress
			if err := database.ForUpdate(tx).
				Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
				First(&p).Error; err != nil {
				return progressLoadError(err, enrollmentID, lessonID)
			}

			now := tr.Now()
			if p.StartedAt == nil {
				p.StartedAt = &now
			}
			apply(&p, now)

			if err := tx.Save(&p).Error; err != nil {
				return fmt.Errorf("save lesson progress: %w", err)
			}
			if _, err := tr.Aggregator.RecomputeTx(ctx, tx, enrollmentID, lessonIDs); err != nil {
				return err
			}
			out = p
			return nil
		})
	})
	if err != nil {
		log.Printf("[PROGRESS] lesson update failed. enrollment=%d lesson=%d err=%v", enrollmentID, lessonID, err)
		return nil, err
	}
	return &out, nil
}

func progressLoadError(err error, enrollmentID, lessonID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFoundf("no progress record for enrollment %d and lesson %d", enrollmentID, lessonID)
	}
	return fmt.Errorf("load lesson progress: %w", err)
}
