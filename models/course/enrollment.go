package course

import (
	"time"

	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentExpired   EnrollmentStatus = "EXPIRED"
)

// CompletionIsMonotonic keeps an enrollment COMPLETED once it got there, even
// when a later recompute lowers the stored progress below 100.
const CompletionIsMonotonic = true

// Enrollment tracks a student's enrollment in a course with progress
type Enrollment struct {
	gorm.Model
	StudentID        uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID         uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	Status           EnrollmentStatus `json:"status" gorm:"size:16;not null;default:'ACTIVE'"`
	Progress         float64          `json:"progress" gorm:"default:0"` // 0-100
	CompletedLessons int              `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int              `json:"total_lessons" gorm:"default:0"`
	EnrolledAt       time.Time        `json:"enrolled_at"`
	CompletedAt      *time.Time       `json:"completed_at"`
	LessonProgress   []LessonProgress `json:"lesson_progress,omitempty" gorm:"foreignKey:EnrollmentID"`
	QuizAttempts     []QuizAttempt    `json:"quiz_attempts,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// LessonProgress is seeded once per lesson when the enrollment is created.
type LessonProgress struct {
	gorm.Model
	EnrollmentID uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	Completed    bool       `json:"completed" gorm:"default:false"`
	WatchTime    float64    `json:"watch_time" gorm:"default:0"` // minutes
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }
