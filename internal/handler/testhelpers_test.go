package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/config"
	"github.com/gradekit/sga-api/internal/handler"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
	"github.com/gradekit/sga-api/internal/router"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/storage"
)

type memoryBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryBlob() *memoryBlob {
	return &memoryBlob{objects: make(map[string][]byte)}
}

func (m *memoryBlob) Put(_ context.Context, key string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryBlob) Get(_ context.Context, key string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, 0, storage.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *memoryBlob) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	blob       *memoryBlob
	course     models.Course
	assignment models.Assignment
}

// Seeded identities reused across handler tests.
const (
	adminUserID   = uint(1)
	graderUserID  = uint(2)
	studentUserID = uint(3)
)

// setupApp wires the full route table against sqlite with the JWT middleware
// replaced by a stub that authenticates the given user.
func setupApp(t *testing.T, userID uint, username string) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.CourseAdmin{},
		&models.Grader{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
	))

	course := models.Course{ExternalID: "cs101", Name: "Intro CS"}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.CourseAdmin{CourseID: course.ID, UserID: adminUserID, Username: "alex"}).Error)
	require.NoError(t, db.Create(&models.Grader{CourseID: course.ID, UserID: graderUserID, Username: "gina", MaxStudents: 10}).Error)
	require.NoError(t, db.Create(&models.Student{CourseID: course.ID, UserID: studentUserID, Username: "sam"}).Error)

	due := time.Now().Add(24 * time.Hour)
	assignment := models.Assignment{ExternalID: "hw1", Name: "Homework 1", CourseID: course.ID, DueDate: &due}
	require.NoError(t, db.Create(&assignment).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	blob := newMemoryBlob()
	keys, err := storage.NewKeyBuilder("", "")
	require.NoError(t, err)

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	graderRepo := repository.NewGraderRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	courseService := service.NewCourseService(courseRepo, studentRepo, submissionRepo, logger)
	graderService := service.NewGraderService(graderRepo, studentRepo, submissionRepo, validate, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, studentRepo, submissionRepo, blob, keys, validate, 1, logger)
	gradingService := service.NewGradingService(assignmentRepo, studentRepo, submissionRepo, blob, keys, validate, 1, logger)
	progressService := service.NewProgressService(assignmentRepo, studentRepo, submissionRepo, nil, time.Minute, logger)
	exportService := service.NewExportService(assignmentRepo, submissionRepo, blob, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		CourseHandler:     handler.NewCourseHandler(courseService, graderService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(progressService, graderService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, gradingService, logger),
		ExportHandler:     handler.NewExportHandler(exportService, logger),
		RoleResolver:      courseService,
		Logger:            logger,
		JWTMiddleware: func(c *fiber.Ctx) error {
			if userID != 0 {
				c.Locals("user_id", userID)
				c.Locals("username", username)
			}
			return c.Next()
		},
	})

	return &testEnv{app: app, db: db, blob: blob, course: course, assignment: assignment}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}
