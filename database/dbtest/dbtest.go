// Package dbtest opens a throwaway sqlite database for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"coursehub/config"
	"coursehub/database"
	courseModels "coursehub/models/course"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated database file under t.TempDir().
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DBDriver:       "sqlite",
		DBDSN:          filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate",
		DBMaxOpenConns: 4,
		DBMaxIdleConns: 4,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedCourse creates a course with one lesson per duration (minutes).
func SeedCourse(t *testing.T, db *gorm.DB, durations ...int) (courseModels.Course, []courseModels.Lesson) {
	t.Helper()

	c := courseModels.Course{Title: "Go in Practice", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&c).Error)

	lessons := make([]courseModels.Lesson, 0, len(durations))
	for i, d := range durations {
		l := courseModels.Lesson{CourseID: c.ID, Title: "Lesson", Duration: d, OrderIndex: i + 1}
		require.NoError(t, db.Create(&l).Error)
		lessons = append(lessons, l)
	}
	return c, lessons
}
