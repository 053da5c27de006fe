package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursehub/config"
	controllers "coursehub/controllers/course"
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/routers/courseRoutes"
	"coursehub/services/enrollment"
	"coursehub/services/lessons"
	"coursehub/services/progress"
	"coursehub/services/quiz"
	"coursehub/services/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db
	cfg := config.AppConfig

	var dir lessons.Directory = lessons.NewDBDirectory(db)
	if cfg.CourseAPIURL != "" {
		log.Printf("Reading lessons from course service at %s", cfg.CourseAPIURL)
		dir = lessons.NewHTTPDirectory(cfg.CourseAPIURL, cfg.CourseAPIToken, time.Duration(cfg.CourseAPITimeoutSec)*time.Second)
	}

	aggregator := progress.NewAggregator(db, dir)
	h := &controllers.Handler{
		Catalog:     quiz.NewCatalog(db, dir),
		Engine:      quiz.NewEngine(db, aggregator),
		Tracker:     progress.NewTracker(db, dir, aggregator),
		Enrollments: enrollment.NewService(db, dir),
		Lessons:     dir,
	}

	reconcile, err := scheduler.Start(scheduler.NewReconciler(db, aggregator, cfg.ReconcileWorkers), cfg.ReconcileCron)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	app := fiber.New()

	app.Use(recover.New())
	app.Use(middleware.RequestID)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization,X-Request-ID",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency} ${locals:requestId}\n",
	}))

	courseRoutes.SetupAdminCourseRoutes(app, h)
	courseRoutes.SetupCourseRoutes(app, h)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		<-reconcile.Stop().Done()
		_ = app.Shutdown()
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
