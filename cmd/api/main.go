package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/config"
	"github.com/gradekit/sga-api/internal/database"
	"github.com/gradekit/sga-api/internal/handler"
	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
	"github.com/gradekit/sga-api/internal/router"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.CourseAdmin{},
		&models.Grader{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	blob, err := storage.NewMinioStore(context.Background(), storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		Region:    cfg.MinioRegion,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to object store: %v", err)
	}

	keys, err := storage.NewKeyBuilder(cfg.InvalidKeyPattern, cfg.KeyReplacement)
	if err != nil {
		log.Fatalf("failed to build storage key builder: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	graderRepo := repository.NewGraderRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	courseService := service.NewCourseService(courseRepo, studentRepo, submissionRepo, logger)
	graderService := service.NewGraderService(graderRepo, studentRepo, submissionRepo, validate, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, studentRepo, submissionRepo, blob, keys, validate, cfg.UploadMaxMB, logger)
	gradingService := service.NewGradingService(assignmentRepo, studentRepo, submissionRepo, blob, keys, validate, cfg.UploadMaxMB, logger)
	progressService := service.NewProgressService(assignmentRepo, studentRepo, submissionRepo, redisClient, cfg.ProgressCacheTTL, logger)
	exportService := service.NewExportService(assignmentRepo, submissionRepo, blob, logger)

	courseHandler := handler.NewCourseHandler(courseService, graderService, logger)
	assignmentHandler := handler.NewAssignmentHandler(progressService, graderService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, logger)
	exportHandler := handler.NewExportHandler(exportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:     courseHandler,
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		ExportHandler:     exportHandler,
		RoleResolver:      courseService,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		Logger:            logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
