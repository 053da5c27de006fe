// Package scheduler runs the periodic progress reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursehub/models/course"
	"coursehub/services/progress"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Reconciler recomputes live enrollments of courses whose lesson set
// changed, so a new lesson lowers everyone's percentage without waiting for
// the student's next action.
type Reconciler struct {
	DB         *gorm.DB
	Aggregator *progress.Aggregator
	Workers    int
	Now        func() time.Time
}

func NewReconciler(db *gorm.DB, agg *progress.Aggregator, workers int) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	return &Reconciler{DB: db, Aggregator: agg, Workers: workers, Now: time.Now}
}

// Window returns the start of the previous day.
func (r *Reconciler) Window() time.Time {
	return now.With(r.Now()).BeginningOfDay().AddDate(0, 0, -1)
}

// ChangedCourses lists courses with lessons added or removed since since.
func (r *Reconciler) ChangedCourses(ctx context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	if err := r.DB.WithContext(ctx).Unscoped().
		Model(&course.Lesson{}).
		Where("created_at >= ? OR deleted_at >= ?", since, since).
		Distinct().
		Pluck("course_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list changed courses: %w", err)
	}
	return ids, nil
}

// Run recomputes every ACTIVE or COMPLETED enrollment of the changed courses
// with at most Workers recomputes in flight. COMPLETED ones keep their status.
// It returns how many enrollments were updated.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	since := r.Window()
	courseIDs, err := r.ChangedCourses(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(courseIDs) == 0 {
		log.Printf("[SCHEDULER] no lesson changes since %s", since.Format(time.RFC3339))
		return 0, nil
	}

	var enrollmentIDs []uint
	if err := r.DB.WithContext(ctx).
		Model(&course.Enrollment{}).
		Where("status IN ? AND course_id IN ?", []course.EnrollmentStatus{course.EnrollmentActive, course.EnrollmentCompleted}, courseIDs).
		Order("id asc").
		Pluck("id", &enrollmentIDs).Error; err != nil {
		return 0, fmt.Errorf("list enrollments: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for _, id := range enrollmentIDs {
		id := id
		g.Go(func() error {
			if _, err := r.Aggregator.Recompute(gctx, id); err != nil {
				return fmt.Errorf("recompute enrollment %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	log.Printf("[SCHEDULER] reconciled %d enrollments across %d courses", len(enrollmentIDs), len(courseIDs))
	return len(enrollmentIDs), nil
}

// Start registers Run on the cron spec and starts the scheduler. The caller
// stops it with the returned cron's Stop.
func Start(r *Reconciler, spec string) (*cron.Cron, error) {
	log.Println("[SCHEDULER] Initializing progress reconciliation...")

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		log.Println("[SCHEDULER] Running progress reconciliation...")
		if _, err := r.Run(context.Background()); err != nil {
			log.Printf("[SCHEDULER] Error reconciling progress: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}

	c.Start()
	log.Printf("[SCHEDULER] Progress reconciliation scheduled at %q", spec)
	return c, nil
}
