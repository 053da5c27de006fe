package enrollment

import (
	"context"
	"fmt"

	"coursehub/models/course"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Query filters and pages a roster. Zero values mean every status, page 1 and
// the default page size.
type Query struct {
	Status course.EnrollmentStatus
	Page   int
	Limit  int
}

func (q Query) window() (offset, limit int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// Page is one slice of a roster plus the size of the whole filtered set.
type Page struct {
	Enrollments []course.Enrollment `json:"enrollments"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
}

// ListByCourse returns the course's enrollments, newest first.
func (s *Service) ListByCourse(ctx context.Context, courseID uint, q Query) (*Page, error) {
	db := s.DB.WithContext(ctx).Model(&course.Enrollment{}).Where("course_id = ?", courseID)
	return s.page(db, q)
}

// ListByInstructor returns enrollments across every course the instructor owns.
func (s *Service) ListByInstructor(ctx context.Context, instructorID uint, q Query) (*Page, error) {
	db := s.DB.WithContext(ctx).Model(&course.Enrollment{}).
		Where("course_id IN (?)", s.DB.Model(&course.Course{}).Select("id").Where("instructor_id = ?", instructorID))
	return s.page(db, q)
}

// CountByCourse counts enrollments of every status.
func (s *Service) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&course.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count enrollments of course %d: %w", courseID, err)
	}
	return n, nil
}

func (s *Service) page(db *gorm.DB, q Query) (*Page, error) {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}

	offset, limit := q.window()
	out := &Page{Total: total, Page: offset/limit + 1, Limit: limit}
	if err := db.Order("enrolled_at desc, id desc").Offset(offset).Limit(limit).Find(&out.Enrollments).Error; err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

// StudentSummaries returns a Summary for each of the student's enrollments.
func (s *Service) StudentSummaries(ctx context.Context, studentID uint) ([]Summary, error) {
	enrollments, err := s.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(enrollments))
	for _, e := range enrollments {
		sum, err := s.Summary(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, nil
}
