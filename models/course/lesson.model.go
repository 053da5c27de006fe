package course

import "gorm.io/gorm"

// Lesson carries the duration and ordering metadata the progress tracker needs.
type Lesson struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	ContentType string `json:"content_type" gorm:"default:'VIDEO'"` // TEXT, VIDEO, PDF
	Duration    int    `json:"duration" gorm:"default:0"`           // minutes
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
}

// CompletionThreshold is the watch time (minutes) at which a lesson auto-completes.
func (l Lesson) CompletionThreshold() float64 {
	return float64(l.Duration) * WatchTimeCompletionRatio
}

// WatchTimeCompletionRatio is the 90%-of-duration watch-time threshold.
const WatchTimeCompletionRatio = 0.9
