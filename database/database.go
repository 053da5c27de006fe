package database

import (
	"coursehub/config"
	courseModels "coursehub/models/course"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the configured database, runs migrations and stores the
// handle in Database.
func ConnectDb() {
	db, err := Open(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", config.AppConfig.DBDriver, err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	Database = DbInstance{Db: db}
}

// Open builds the dialector for cfg.DBDriver and applies pool settings.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(0) // No timeout

	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
			)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
			)
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = cfg.DBName + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Migrate creates or updates the engine tables.
func Migrate(db *gorm.DB) error {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Lesson{},
		&courseModels.Quiz{},
		&courseModels.Question{},
		&courseModels.Option{},
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.QuizAttempt{},
		&courseModels.StudentAnswer{},
	)
	if err != nil {
		return err
	}
	if err := createLiveLessonQuizIndex(db); err != nil {
		return err
	}

	log.Println("Migrations completed successfully.")
	return nil
}

// LiveLessonQuizIndex allows one live quiz per lesson. Soft-deleted quizzes
// and quizzes without a lesson are outside it.
const LiveLessonQuizIndex = "idx_quizzes_live_lesson"

func createLiveLessonQuizIndex(db *gorm.DB) error {
	if db.Migrator().HasIndex(&courseModels.Quiz{}, LiveLessonQuizIndex) {
		return nil
	}

	var ddl string
	switch db.Dialector.Name() {
	case "mysql":
		// No partial indexes; NULL keys never collide in a unique index.
		ddl = "CREATE UNIQUE INDEX " + LiveLessonQuizIndex +
			" ON quizzes ((IF(deleted_at IS NULL, lesson_id, NULL)))"
	default:
		ddl = "CREATE UNIQUE INDEX " + LiveLessonQuizIndex +
			" ON quizzes (lesson_id) WHERE deleted_at IS NULL AND lesson_id IS NOT NULL"
	}
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create index %s: %w", LiveLessonQuizIndex, err)
	}
	return nil
}

// IsUniqueViolation reports a duplicate-key failure from any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// ForUpdate adds a row lock on dialects that support SELECT ... FOR UPDATE.
// sqlite serializes writers on its own and rejects the clause.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return tx
	}
}
