package progress

import (
	"context"
	"math"
	"testing"

	"coursehub/database/dbtest"
	"coursehub/models/course"
	"coursehub/services/lessons"
	"coursehub/utils/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTracker(t *testing.T, durations ...int) (*Tracker, course.Enrollment, []course.Lesson) {
	t.Helper()
	db := dbtest.Open(t)
	c, ls := dbtest.SeedCourse(t, db, durations...)
	e := enroll(t, db, 11, c, ls)
	dir := lessons.NewDBDirectory(db)
	return NewTracker(db, dir, NewAggregator(db, dir)), e, ls
}

func TestUpdateWatchTimeThreshold(t *testing.T) {
	tr, e, ls := newTracker(t, 20, 20)
	ctx := context.Background()

	p, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 17.0)
	require.NoError(t, err)
	assert.False(t, p.Completed)
	assert.Nil(t, p.CompletedAt)
	assert.InDelta(t, 17.0, p.WatchTime, 1e-9)

	p, err = tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 18.0)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	require.NotNil(t, p.CompletedAt)

	var got course.Enrollment
	require.NoError(t, tr.DB.First(&got, e.ID).Error)
	assert.InDelta(t, 35.0, got.Progress, 1e-9)
	assert.Equal(t, 1, got.CompletedLessons)
}

func TestUpdateWatchTimeNeverUncompletes(t *testing.T) {
	tr, e, ls := newTracker(t, 20)
	ctx := context.Background()

	first, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 19)
	require.NoError(t, err)
	require.True(t, first.Completed)

	p, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 2)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.InDelta(t, 2.0, p.WatchTime, 1e-9)
	require.NotNil(t, p.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*p.CompletedAt))
}

func TestUpdateWatchTimeRepeatedValue(t *testing.T) {
	tr, e, ls := newTracker(t, 20, 20)
	ctx := context.Background()

	first, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 12.5)
	require.NoError(t, err)
	var before course.Enrollment
	require.NoError(t, tr.DB.First(&before, e.ID).Error)

	second, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, 12.5)
	require.NoError(t, err)
	var after course.Enrollment
	require.NoError(t, tr.DB.First(&after, e.ID).Error)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, first.WatchTime, second.WatchTime, 1e-9)
	assert.Equal(t, first.Completed, second.Completed)
	assert.Nil(t, second.CompletedAt)
	require.NotNil(t, second.StartedAt)
	assert.True(t, first.StartedAt.Equal(*second.StartedAt))
	assert.InDelta(t, before.Progress, after.Progress, 1e-9)
	assert.Equal(t, before.CompletedLessons, after.CompletedLessons)
}

func TestUpdateWatchTimeRejectsBadInput(t *testing.T) {
	tr, e, ls := newTracker(t, 20)
	ctx := context.Background()

	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := tr.UpdateWatchTime(ctx, e.ID, ls[0].ID, v)
		assert.True(t, apperror.IsKind(err, apperror.ValidationFailed), "value %v", v)
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	tr, e, ls := newTracker(t, 10, 10, 10, 10)
	ctx := context.Background()

	for _, l := range ls[:3] {
		p, err := tr.MarkCompleted(ctx, e.ID, l.ID)
		require.NoError(t, err)
		assert.True(t, p.Completed)
		assert.InDelta(t, 10.0, p.WatchTime, 1e-9)
	}
	_, err := tr.MarkCompleted(ctx, e.ID, ls[0].ID)
	require.NoError(t, err)

	var got course.Enrollment
	require.NoError(t, tr.DB.First(&got, e.ID).Error)
	assert.InDelta(t, 52.5, got.Progress, 1e-9)
	assert.Equal(t, course.EnrollmentActive, got.Status)
}

func TestTrackerMissingProgressRow(t *testing.T) {
	tr, e, _ := newTracker(t, 10)
	ctx := context.Background()

	late := course.Lesson{CourseID: e.CourseID, Title: "Added later", Duration: 10, OrderIndex: 2}
	require.NoError(t, tr.DB.Create(&late).Error)

	_, err := tr.MarkCompleted(ctx, e.ID, late.ID)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))

	_, err = tr.Get(ctx, e.ID, late.ID)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))

	_, err = tr.UpdateWatchTime(ctx, e.ID, 9999, 5)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestConcurrentCompletionsCountEveryLesson(t *testing.T) {
	tr, e, ls := newTracker(t, 5, 5, 5, 5, 5, 5)
	ctx := context.Background()

	var g errgroup.Group
	for _, l := range ls {
		lessonID := l.ID
		g.Go(func() error {
			_, err := tr.MarkCompleted(ctx, e.ID, lessonID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	var got course.Enrollment
	require.NoError(t, tr.DB.First(&got, e.ID).Error)
	assert.Equal(t, 6, got.CompletedLessons)
	assert.InDelta(t, 70.0, got.Progress, 1e-9)
}
