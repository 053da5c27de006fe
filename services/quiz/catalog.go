// Package quiz authors quizzes, runs attempts and grades submissions.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"

	"coursehub/database"
	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/utils/apperror"

	"gorm.io/gorm"
)

// Catalog owns quiz definitions. Edits are full replacements: every update
// rebuilds the question set, so question and option ids change on each save.
type Catalog struct {
	DB      *gorm.DB
	Lessons lessons.Directory
}

func NewCatalog(db *gorm.DB, dir lessons.Directory) *Catalog {
	return &Catalog{DB: db, Lessons: dir}
}

// CreateQuiz stores the quiz shell first, then each question and its options.
// A draft with no usable questions yields an empty quiz. The live-lesson index
// settles two creates racing past ensureLessonFree.
func (c *Catalog) CreateQuiz(ctx context.Context, draft QuizDraft, courseID uint, lessonID *uint) (*course.Quiz, error) {
	questions, err := buildQuestions(draft)
	if err != nil {
		return nil, err
	}
	if err := c.checkLesson(ctx, courseID, lessonID); err != nil {
		return nil, err
	}

	q := course.Quiz{
		CourseID:     courseID,
		LessonID:     lessonID,
		Title:        draft.Title,
		Description:  draft.Description,
		Duration:     draft.Duration,
		PassingScore: draft.PassingScore,
		MaxAttempts:  draft.maxAttempts(),
	}

	err = c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if lessonID != nil {
			if err := ensureLessonFree(tx, *lessonID, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(&q).Error; err != nil {
			if lessonID != nil && database.IsUniqueViolation(err) {
				return apperror.Wrap(apperror.Conflict, err, "lesson %d already has a quiz", *lessonID)
			}
			return fmt.Errorf("create quiz: %w", err)
		}
		saved, err := saveQuestions(tx, q.ID, questions)
		if err != nil {
			return err
		}
		q.TotalQuestions = len(saved)
		if err := tx.Model(&q).Update("total_questions", q.TotalQuestions).Error; err != nil {
			return fmt.Errorf("save quiz %d: %w", q.ID, err)
		}
		q.Questions = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[QUIZ] created quiz=%d course=%d questions=%d", q.ID, courseID, q.TotalQuestions)
	return &q, nil
}

// UpdateQuiz overwrites the scalar fields and replaces the whole question set.
// The lesson binding is left as is.
func (c *Catalog) UpdateQuiz(ctx context.Context, quizID uint, draft QuizDraft) (*course.Quiz, error) {
	questions, err := buildQuestions(draft)
	if err != nil {
		return nil, err
	}

	var q course.Quiz
	err = c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&q, quizID).Error; err != nil {
			return quizLoadError(err, quizID)
		}

		q.Title = draft.Title
		q.Description = draft.Description
		q.Duration = draft.Duration
		q.PassingScore = draft.PassingScore
		q.MaxAttempts = draft.maxAttempts()

		if err := deleteQuestions(tx, q.ID); err != nil {
			return err
		}
		saved, err := saveQuestions(tx, q.ID, questions)
		if err != nil {
			return err
		}
		q.TotalQuestions = len(saved)
		if err := tx.Omit("Questions").Save(&q).Error; err != nil {
			return fmt.Errorf("save quiz %d: %w", q.ID, err)
		}
		q.Questions = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[QUIZ] replaced quiz=%d questions=%d", q.ID, q.TotalQuestions)
	return &q, nil
}

// DeleteQuiz removes options, then questions, then the quiz. Rows are soft
// deleted, so attempts and answers keep pointing at them as history.
func (c *Catalog) DeleteQuiz(ctx context.Context, quizID uint) error {
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q course.Quiz
		if err := tx.Select("id").First(&q, quizID).Error; err != nil {
			return quizLoadError(err, quizID)
		}
		if err := deleteQuestions(tx, q.ID); err != nil {
			return err
		}
		if err := tx.Delete(&q).Error; err != nil {
			return fmt.Errorf("delete quiz %d: %w", q.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[QUIZ] deleted quiz=%d", quizID)
	return nil
}

// GetQuiz loads the quiz with questions and options in authoring order.
func (c *Catalog) GetQuiz(ctx context.Context, quizID uint) (*course.Quiz, error) {
	var q course.Quiz
	if err := withQuestions(c.DB.WithContext(ctx)).First(&q, quizID).Error; err != nil {
		return nil, quizLoadError(err, quizID)
	}
	return &q, nil
}

func (c *Catalog) GetQuizByLesson(ctx context.Context, lessonID uint) (*course.Quiz, error) {
	var q course.Quiz
	if err := withQuestions(c.DB.WithContext(ctx)).Where("lesson_id = ?", lessonID).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("lesson %d has no quiz", lessonID)
		}
		return nil, fmt.Errorf("load quiz of lesson %d: %w", lessonID, err)
	}
	return &q, nil
}

// ListQuizzesByCourse returns the course's quizzes without their questions.
func (c *Catalog) ListQuizzesByCourse(ctx context.Context, courseID uint) ([]course.Quiz, error) {
	var out []course.Quiz
	if err := c.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id asc").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list quizzes of course %d: %w", courseID, err)
	}
	return out, nil
}

func (c *Catalog) checkLesson(ctx context.Context, courseID uint, lessonID *uint) error {
	if lessonID == nil {
		return nil
	}
	l, err := c.Lessons.Lesson(ctx, *lessonID)
	if err != nil {
		return err
	}
	if l.CourseID != courseID {
		return apperror.NotFoundf("lesson %d not found in course %d", *lessonID, courseID)
	}
	return nil
}

// ensureLessonFree fails with Conflict when another live quiz is bound to
// the lesson.
func ensureLessonFree(tx *gorm.DB, lessonID, exceptQuizID uint) error {
	var n int64
	if err := tx.Model(&course.Quiz{}).
		Where("lesson_id = ? AND id <> ?", lessonID, exceptQuizID).
		Count(&n).Error; err != nil {
		return fmt.Errorf("check lesson quiz: %w", err)
	}
	if n > 0 {
		return apperror.New(apperror.Conflict, "lesson %d already has a quiz", lessonID)
	}
	return nil
}

// saveQuestions writes each question, then its options with QuestionID set.
func saveQuestions(tx *gorm.DB, quizID uint, questions []course.Question) ([]course.Question, error) {
	saved := make([]course.Question, 0, len(questions))
	for _, q := range questions {
		options := q.Options
		q.Options = nil
		q.QuizID = quizID
		if err := tx.Create(&q).Error; err != nil {
			return nil, fmt.Errorf("create question: %w", err)
		}
		for i := range options {
			options[i].QuestionID = q.ID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return nil, fmt.Errorf("create options of question %d: %w", q.ID, err)
			}
		}
		q.Options = options
		saved = append(saved, q)
	}
	return saved, nil
}

func deleteQuestions(tx *gorm.DB, quizID uint) error {
	var ids []uint
	if err := tx.Model(&course.Question{}).Where("quiz_id = ?", quizID).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("list questions of quiz %d: %w", quizID, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("question_id IN ?", ids).Delete(&course.Option{}).Error; err != nil {
		return fmt.Errorf("delete options of quiz %d: %w", quizID, err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&course.Question{}).Error; err != nil {
		return fmt.Errorf("delete questions of quiz %d: %w", quizID, err)
	}
	return nil
}

func withQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index asc, id asc")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index asc, id asc")
		})
}

func quizLoadError(err error, quizID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFoundf("quiz %d not found", quizID)
	}
	return fmt.Errorf("load quiz %d: %w", quizID, err)
}
