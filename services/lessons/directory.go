// Package lessons is the engine's view of the course catalog: the lessons a
// course has right now and each lesson's duration.
package lessons

import (
	"context"
	"errors"
	"fmt"

	"coursehub/models/course"
	"coursehub/utils/apperror"

	"gorm.io/gorm"
)

// Directory answers the two questions the engine asks the course catalog.
type Directory interface {
	Lesson(ctx context.Context, lessonID uint) (*course.Lesson, error)
	CourseLessons(ctx context.Context, courseID uint) ([]course.Lesson, error)
}

// DBDirectory reads lessons from the shared lessons table.
type DBDirectory struct {
	DB *gorm.DB
}

func NewDBDirectory(db *gorm.DB) *DBDirectory {
	return &DBDirectory{DB: db}
}

func (d *DBDirectory) Lesson(ctx context.Context, lessonID uint) (*course.Lesson, error) {
	var l course.Lesson
	if err := d.DB.WithContext(ctx).First(&l, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("lesson %d not found", lessonID)
		}
		return nil, fmt.Errorf("load lesson %d: %w", lessonID, err)
	}
	return &l, nil
}

func (d *DBDirectory) CourseLessons(ctx context.Context, courseID uint) ([]course.Lesson, error) {
	var out []course.Lesson
	if err := d.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index asc, id asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list lessons of course %d: %w", courseID, err)
	}
	return out, nil
}

// IDs lists the ids of ls in order.
func IDs(ls []course.Lesson) []uint {
	out := make([]uint, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
