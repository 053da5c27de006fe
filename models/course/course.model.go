package course

import "gorm.io/gorm"

// Course is the read-only view the engine keeps of a catalog course. Course
// CRUD lives outside this module; the engine only needs its identity, owner
// and lessons.
type Course struct {
	gorm.Model
	InstructorID uint     `json:"instructor_id" gorm:"index"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Status       string   `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	IsPublished  bool     `json:"is_published" gorm:"default:false"`
	Lessons      []Lesson `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`
}
