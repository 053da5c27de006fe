package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coursehub/database"
	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/utils/apperror"

	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Lessons lessons.Directory
	Now     func() time.Time
}

func NewService(db *gorm.DB, dir lessons.Directory) *Service {
	return &Service{DB: db, Lessons: dir, Now: time.Now}
}

// Enroll creates the enrollment and seeds one LessonProgress row for every
// lesson the course has at this moment. Lessons added later get no row.
func (s *Service) Enroll(ctx context.Context, studentID, courseID uint) (*course.Enrollment, error) {
	courseLessons, err := s.Lessons.CourseLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	e := course.Enrollment{
		StudentID:    studentID,
		CourseID:     courseID,
		Status:       course.EnrollmentActive,
		TotalLessons: len(courseLessons),
		EnrolledAt:   now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&course.Enrollment{}).
			Where("student_id = ? AND course_id = ?", studentID, courseID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if existing > 0 {
			return apperror.New(apperror.AlreadyEnrolled, "student %d is already enrolled in course %d", studentID, courseID)
		}

		if err := tx.Create(&e).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.New(apperror.AlreadyEnrolled, "student %d is already enrolled in course %d", studentID, courseID)
			}
			return fmt.Errorf("create enrollment: %w", err)
		}

		if len(courseLessons) == 0 {
			return nil
		}
		rows := make([]course.LessonProgress, 0, len(courseLessons))
		for _, l := range courseLessons {
			rows = append(rows, course.LessonProgress{
				EnrollmentID: e.ID,
				LessonID:     l.ID,
				StartedAt:    &now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("seed lesson progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ENROLLMENT] student=%d enrolled in course=%d enrollment=%d lessons=%d", studentID, courseID, e.ID, len(courseLessons))
	return &e, nil
}

// Get returns the enrollment for (student, course) or NotFound.
func (s *Service) Get(ctx context.Context, studentID, courseID uint) (*course.Enrollment, error) {
	var e course.Enrollment
	if err := s.DB.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("student %d is not enrolled in course %d", studentID, courseID)
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	return &e, nil
}

func (s *Service) GetByID(ctx context.Context, enrollmentID uint) (*course.Enrollment, error) {
	var e course.Enrollment
	if err := s.DB.WithContext(ctx).First(&e, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("enrollment %d not found", enrollmentID)
		}
		return nil, fmt.Errorf("load enrollment %d: %w", enrollmentID, err)
	}
	return &e, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID uint) ([]course.Enrollment, error) {
	var out []course.Enrollment
	if err := s.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("enrolled_at desc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

func (s *Service) ListLessonProgress(ctx context.Context, enrollmentID uint) ([]course.LessonProgress, error) {
	var out []course.LessonProgress
	if err := s.DB.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("lesson_id asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	return out, nil
}
