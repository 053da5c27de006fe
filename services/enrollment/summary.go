package enrollment

import (
	"context"
	"fmt"
	"time"

	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/services/progress"
)

// Summary is the read model shown on a student's course page.
type Summary struct {
	EnrollmentID       uint                    `json:"enrollment_id"`
	CourseID           uint                    `json:"course_id"`
	Status             course.EnrollmentStatus `json:"status"`
	Progress           float64                 `json:"progress"`
	CompletedLessons   int64                   `json:"completed_lessons"`
	TotalLessons       int                     `json:"total_lessons"`
	QuizAttempts       int64                   `json:"quiz_attempts"`
	PassedQuizAttempts int64                   `json:"passed_quiz_attempts"`
	AverageScore       *float64                `json:"average_score"` // mean percentage of scored attempts
	LastAccessed       time.Time               `json:"last_accessed"`
	CompletedAt        *time.Time              `json:"completed_at"`
}

// Summary reads counts live; TotalLessons comes from the course as it is now.
func (s *Service) Summary(ctx context.Context, enrollmentID uint) (*Summary, error) {
	e, err := s.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	courseLessons, err := s.Lessons.CourseLessons(ctx, e.CourseID)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		EnrollmentID: e.ID,
		CourseID:     e.CourseID,
		Status:       e.Status,
		Progress:     e.Progress,
		TotalLessons: len(courseLessons),
		LastAccessed: e.EnrolledAt,
		CompletedAt:  e.CompletedAt,
	}

	db := s.DB.WithContext(ctx)
	if out.CompletedLessons, err = progress.CountCompleted(db, e.ID, lessons.IDs(courseLessons)); err != nil {
		return nil, err
	}
	if err := db.Model(&course.QuizAttempt{}).
		Where("enrollment_id = ?", e.ID).
		Count(&out.QuizAttempts).Error; err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if err := db.Model(&course.QuizAttempt{}).
		Where("enrollment_id = ? AND status = ?", e.ID, course.AttemptPassed).
		Count(&out.PassedQuizAttempts).Error; err != nil {
		return nil, fmt.Errorf("count passed attempts: %w", err)
	}

	var scored []int
	if err := db.Model(&course.QuizAttempt{}).
		Where("enrollment_id = ? AND status IN ?", e.ID, []course.AttemptStatus{course.AttemptPassed, course.AttemptFailed}).
		Pluck("percentage", &scored).Error; err != nil {
		return nil, fmt.Errorf("load attempt percentages: %w", err)
	}
	if len(scored) > 0 {
		sum := 0
		for _, p := range scored {
			sum += p
		}
		avg := float64(sum) / float64(len(scored))
		out.AverageScore = &avg
	}

	rows, err := s.ListLessonProgress(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.StartedAt != nil && r.StartedAt.After(out.LastAccessed) {
			out.LastAccessed = *r.StartedAt
		}
		if r.CompletedAt != nil && r.CompletedAt.After(out.LastAccessed) {
			out.LastAccessed = *r.CompletedAt
		}
	}
	return out, nil
}
