package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"coursehub/database/dbtest"
	"coursehub/models/course"
	"coursehub/services/enrollment"
	"coursehub/services/lessons"
	"coursehub/services/progress"
	"coursehub/utils/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	catalog    *Catalog
	engine     *Engine
	enrollment *course.Enrollment
	course     course.Course
}

const student = uint(42)

func newFixture(t *testing.T, lessonDurations ...int) fixture {
	t.Helper()
	db := dbtest.Open(t)
	c, _ := dbtest.SeedCourse(t, db, lessonDurations...)
	dir := lessons.NewDBDirectory(db)

	enr, err := enrollment.NewService(db, dir).Enroll(context.Background(), student, c.ID)
	require.NoError(t, err)

	return fixture{
		db:         db,
		catalog:    NewCatalog(db, dir),
		engine:     NewEngine(db, progress.NewAggregator(db, dir)),
		enrollment: enr,
		course:     c,
	}
}

// twoQuestionQuiz is worth two points, one per multiple-choice question.
func (f fixture) twoQuestionQuiz(t *testing.T, maxAttempts int) *course.Quiz {
	t.Helper()
	q, err := f.catalog.CreateQuiz(context.Background(), QuizDraft{
		Title:        "Concurrency",
		PassingScore: 50,
		MaxAttempts:  maxAttempts,
		Questions: []QuestionDraft{
			mcQuestion("Unit of concurrency?", "goroutine", "thread"),
			mcQuestion("Communicate by?", "channels", "globals"),
		},
	}, f.course.ID, nil)
	require.NoError(t, err)
	return q
}

func TestSubmitScoring(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()
	q1, q2 := q.Questions[0].ID, q.Questions[1].ID

	tests := []struct {
		answers    map[uint]string
		score      int
		percentage int
		status     course.AttemptStatus
		recorded   int
	}{
		{map[uint]string{q1: "goroutine", q2: "channels"}, 2, 100, course.AttemptPassed, 2},
		{map[uint]string{q1: "goroutine", q2: "globals"}, 1, 50, course.AttemptPassed, 2},
		{map[uint]string{}, 0, 0, course.AttemptFailed, 0},
	}
	for i, tt := range tests {
		a, err := f.engine.StartAttempt(ctx, q.ID, student)
		require.NoError(t, err)
		assert.Equal(t, i+1, a.AttemptNumber)
		assert.Equal(t, course.AttemptInProgress, a.Status)

		got, err := f.engine.SubmitAttempt(ctx, a.ID, tt.answers)
		require.NoError(t, err)
		assert.Equal(t, tt.score, got.Score)
		assert.Equal(t, 2, got.MaxScore)
		assert.Equal(t, tt.percentage, got.Percentage)
		assert.Equal(t, tt.status, got.Status)
		assert.NotNil(t, got.CompletedAt)

		stored, err := f.engine.GetAttempt(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.status, stored.Status)
		assert.Len(t, stored.StudentAnswers, tt.recorded)

		var breakdown []course.QuestionResult
		require.NoError(t, json.Unmarshal([]byte(stored.Breakdown), &breakdown))
		assert.Len(t, breakdown, 2)
	}

	left, err := f.engine.RemainingAttempts(ctx, q.ID, student)
	require.NoError(t, err)
	assert.Zero(t, left)

	_, err = f.engine.StartAttempt(ctx, q.ID, student)
	assert.True(t, apperror.IsKind(err, apperror.AttemptLimitExceeded))
}

func TestStartAttemptLimitOfOne(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 1)
	ctx := context.Background()

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	assert.Equal(t, 1, a.AttemptNumber)

	_, err = f.engine.StartAttempt(ctx, q.ID, student)
	assert.True(t, apperror.IsKind(err, apperror.AttemptLimitExceeded))
}

func TestStartAttemptPreconditions(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	_, err := f.engine.StartAttempt(ctx, q.ID, 7)
	assert.True(t, apperror.IsKind(err, apperror.NotEnrolled))

	_, err = f.engine.StartAttempt(ctx, 9999, student)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))

	_, err = f.engine.SubmitAttempt(ctx, 9999, nil)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestConcurrentStartsRespectLimit(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	const callers = 10
	numbers := make(chan int, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			a, err := f.engine.StartAttempt(ctx, q.ID, student)
			if apperror.IsKind(err, apperror.AttemptLimitExceeded) {
				return nil
			}
			if err != nil {
				return err
			}
			numbers <- a.AttemptNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(numbers)

	var got []int
	for n := range numbers {
		got = append(got, n)
	}
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	first, err := f.engine.SubmitAttempt(ctx, a.ID, map[uint]string{q.Questions[0].ID: "goroutine"})
	require.NoError(t, err)
	assert.Equal(t, course.AttemptPassed, first.Status)

	_, err = f.engine.SubmitAttempt(ctx, a.ID, map[uint]string{})
	assert.True(t, apperror.IsKind(err, apperror.AttemptClosed))

	stored, err := f.engine.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Percentage)
	assert.Len(t, stored.StudentAnswers, 1)
}

func TestSubmitQuizWithoutQuestions(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	q, err := f.catalog.CreateQuiz(ctx, QuizDraft{Title: "Empty", PassingScore: 50}, f.course.ID, nil)
	require.NoError(t, err)

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	got, err := f.engine.SubmitAttempt(ctx, a.ID, map[uint]string{123: "stray"})
	require.NoError(t, err)
	assert.Equal(t, 0, got.MaxScore)
	assert.Equal(t, 0, got.Percentage)
	assert.Equal(t, course.AttemptFailed, got.Status)
	assert.Empty(t, got.StudentAnswers)
}

func TestSubmitRecomputesEnrollment(t *testing.T) {
	f := newFixture(t, 10, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	_, err = f.engine.SubmitAttempt(ctx, a.ID, map[uint]string{
		q.Questions[0].ID: "goroutine",
		q.Questions[1].ID: "channels",
	})
	require.NoError(t, err)

	var enr course.Enrollment
	require.NoError(t, f.db.First(&enr, f.enrollment.ID).Error)
	assert.InDelta(t, 30.0, enr.Progress, 1e-9)

	// A failed second attempt halves the quiz share: attempts are counted, not quizzes.
	b, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	_, err = f.engine.SubmitAttempt(ctx, b.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.db.First(&enr, f.enrollment.ID).Error)
	assert.InDelta(t, 15.0, enr.Progress, 1e-9)

	attempts, err := f.engine.ListAttemptsByEnrollment(ctx, f.enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
	mine, err := f.engine.ListAttemptsForStudent(ctx, q.ID, student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 2, mine[1].AttemptNumber)
}

func TestSubmitUsesCurrentQuestionsAfterReplace(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)

	updated, err := f.catalog.UpdateQuiz(ctx, q.ID, QuizDraft{Title: "Concurrency v2", PassingScore: 50, Questions: []QuestionDraft{
		{Text: "Go is compiled", Type: course.QuestionTrueFalse, CorrectAnswer: "true", Points: 3},
	}})
	require.NoError(t, err)

	got, err := f.engine.SubmitAttempt(ctx, a.ID, map[uint]string{
		q.Questions[0].ID:       "goroutine",
		updated.Questions[0].ID: "TRUE",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Score)
	assert.Equal(t, 3, got.MaxScore)
	assert.Len(t, got.StudentAnswers, 1)
}

func TestSubmitRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	ctx := context.Background()

	a, err := f.engine.StartAttempt(ctx, q.ID, student)
	require.NoError(t, err)
	var before course.Enrollment
	require.NoError(t, f.db.First(&before, f.enrollment.ID).Error)

	const hook = "coursehub:fail_attempt_update"
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register(hook, func(tx *gorm.DB) {
		if tx.Statement.Table == "quiz_attempts" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	answers := map[uint]string{q.Questions[0].ID: "goroutine", q.Questions[1].ID: "channels"}
	_, err = f.engine.SubmitAttempt(ctx, a.ID, answers)
	require.Error(t, err)

	stored, err := f.engine.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, course.AttemptInProgress, stored.Status)
	assert.Zero(t, stored.Score)
	assert.Nil(t, stored.CompletedAt)
	assert.Empty(t, stored.StudentAnswers)

	var answersLeft int64
	require.NoError(t, f.db.Unscoped().Model(&course.StudentAnswer{}).Where("quiz_attempt_id = ?", a.ID).Count(&answersLeft).Error)
	assert.Zero(t, answersLeft)

	var after course.Enrollment
	require.NoError(t, f.db.First(&after, f.enrollment.ID).Error)
	assert.InDelta(t, before.Progress, after.Progress, 1e-9)

	// Once storage recovers the same attempt can still be submitted.
	require.NoError(t, f.db.Callback().Update().Remove(hook))
	got, err := f.engine.SubmitAttempt(ctx, a.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, course.AttemptPassed, got.Status)
}

// rivalAttempts makes the next creates of quiz_attempts collide on the
// attempt number by inserting a row with that number first, inside the same
// transaction.
func rivalAttempts(t *testing.T, db *gorm.DB, times int) *int {
	t.Helper()
	fired := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("coursehub:rival_attempt", func(tx *gorm.DB) {
		a, ok := tx.Statement.Dest.(*course.QuizAttempt)
		if !ok || fired >= times {
			return
		}
		fired++
		now := time.Now()
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO quiz_attempts (created_at, updated_at, quiz_id, student_id, enrollment_id, attempt_number, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			now, now, a.QuizID, a.StudentID, a.EnrollmentID, a.AttemptNumber, course.AttemptInProgress, now,
		).Error; err != nil {
			_ = tx.AddError(err)
		}
	}))
	return &fired
}

func TestStartAttemptRetriesTakenNumber(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	fired := rivalAttempts(t, f.db, 1)

	a, err := f.engine.StartAttempt(context.Background(), q.ID, student)
	require.NoError(t, err)
	assert.Equal(t, 1, *fired)
	assert.Equal(t, 1, a.AttemptNumber)

	var n int64
	require.NoError(t, f.db.Model(&course.QuizAttempt{}).Where("quiz_id = ?", q.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestStartAttemptGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t, 10)
	q := f.twoQuestionQuiz(t, 3)
	fired := rivalAttempts(t, f.db, startRetries+1)

	_, err := f.engine.StartAttempt(context.Background(), q.ID, student)
	assert.True(t, apperror.IsKind(err, apperror.Conflict), "got %v", err)
	assert.Equal(t, startRetries, *fired)

	var n int64
	require.NoError(t, f.db.Unscoped().Model(&course.QuizAttempt{}).Where("quiz_id = ?", q.ID).Count(&n).Error)
	assert.Zero(t, n)
}
