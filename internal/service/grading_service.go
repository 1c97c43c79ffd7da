package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/observability"
	"github.com/gradekit/sga-api/internal/repository"
	"github.com/gradekit/sga-api/internal/storage"
)

// GradingActor identifies the staff member performing a grading action.
type GradingActor struct {
	UserID   uint
	Username string
}

// GradingService encapsulates the staff grading and admin unsubmit workflows.
type GradingService interface {
	Grade(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string, actor GradingActor, payload dto.GradeSubmissionRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Unsubmit(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (dto.SubmissionResponse, error)
}

type gradingService struct {
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	blob        storage.Blob
	keys        *storage.KeyBuilder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	maxSize     int64
	now         func() time.Time
}

// NewGradingService constructs a GradingService instance.
func NewGradingService(assignmentRepo repository.AssignmentRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, blob storage.Blob, keys *storage.KeyBuilder, validate *validator.Validate, maxSizeMB int, logger zerolog.Logger) GradingService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &gradingService{
		assignments: assignmentRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		blob:        blob,
		keys:        keys,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string, actor GradingActor, payload dto.GradeSubmissionRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/gradekit/sga-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.record")
	span.SetAttributes(
		attribute.String("grading.assignment", assignmentExternalID),
		attribute.String("grading.student", studentUsername),
		attribute.Int64("grading.actor_id", int64(actor.UserID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	assignment, student, submission, err := s.lookup(ctx, courseID, assignmentExternalID, studentUsername)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if file != nil {
		if file.Size > s.maxSize {
			span.RecordError(ErrFileTooLarge)
			span.SetStatus(codes.Error, "file_too_large")
			return dto.SubmissionResponse{}, ErrFileTooLarge
		}
		if err := validateDocumentType(file); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "file_type_rejected")
			return dto.SubmissionResponse{}, err
		}

		key := s.keys.SubmissionKey(storage.GraderDocument, assignment.Course.ExternalID, assignment.ExternalID, assignment.Name, studentUsername, file.Filename)
		if err := s.storeGraderDocument(ctx, key, file); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "storage_failed")
			return dto.SubmissionResponse{}, err
		}
		submission.GraderDocument = key
		observability.Uploads().WithLabelValues(string(storage.GraderDocument)).Inc()
	}

	if err := submission.RecordGrade(*payload.Grade, actor.UserID, s.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_transition")
		return dto.SubmissionResponse{}, err
	}
	submission.Feedback = s.sanitizer.Sanitize(payload.Feedback)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("assignment", assignment.ExternalID).
		Str("student", student.Username).
		Int("grade", *payload.Grade).
		Uint("graded_by", actor.UserID).
		Msg("submission graded")

	span.SetAttributes(attribute.Int("grading.grade", *payload.Grade))

	return dto.NewSubmissionResponse(submission), nil
}

// Unsubmit rewinds the lifecycle state without clearing the prior grade,
// feedback or documents; the stale fields remain visible to staff.
func (s *gradingService) Unsubmit(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (dto.SubmissionResponse, error) {
	assignment, student, submission, err := s.lookup(ctx, courseID, assignmentExternalID, studentUsername)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Unsubmit()

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("assignment", assignment.ExternalID).
		Str("student", student.Username).
		Msg("submission reset to unsubmitted")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) lookup(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (models.Assignment, models.Student, models.Submission, error) {
	assignment, err := s.assignments.GetByCourseAndExternalID(ctx, courseID, assignmentExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Student{}, models.Submission{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, models.Student{}, models.Submission{}, err
	}

	student, err := s.students.GetByUsername(ctx, assignment.CourseID, studentUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Student{}, models.Submission{}, ErrStudentNotFound
		}
		return models.Assignment{}, models.Student{}, models.Submission{}, err
	}

	submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
	if err != nil {
		return models.Assignment{}, models.Student{}, models.Submission{}, err
	}

	return assignment, student, submission, nil
}

func (s *gradingService) storeGraderDocument(ctx context.Context, key string, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	return s.blob.Put(ctx, key, reader, file.Size)
}
