package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/observability"
	"github.com/gradekit/sga-api/internal/repository"
	"github.com/gradekit/sga-api/internal/storage"
)

var (
	// ErrAssignmentNotFound indicates the assignment could not be located.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSubmissionNotFound indicates the submission could not be located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrPastDeadline indicates the upload arrived after due date plus grace.
	ErrPastDeadline = errors.New("assignment deadline has passed")
	// ErrFileRequired indicates the multipart upload carried no file.
	ErrFileRequired = errors.New("document file is required")
	// ErrFileTooLarge indicates the upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("document exceeds maximum allowed size")
	// ErrFileTypeNotAllowed indicates the sniffed MIME type is not permitted.
	ErrFileTypeNotAllowed = errors.New("document file type not allowed")
	// ErrDocumentMissing indicates the requested document slot is empty.
	ErrDocumentMissing = errors.New("no document uploaded for this submission")
)

// SubmissionService orchestrates the student submission workflow and document
// access for both students and staff.
type SubmissionService interface {
	GetForStudent(ctx context.Context, courseID uint, assignmentExternalID string, userID uint, username string) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, courseID uint, assignmentExternalID string, userID uint, username string, payload dto.StudentSubmitRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	GetForStaff(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (dto.SubmissionResponse, error)
	OpenDocument(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string, kind storage.DocumentKind) (io.ReadCloser, int64, string, error)
}

type submissionService struct {
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

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(assignmentRepo repository.AssignmentRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, blob storage.Blob, keys *storage.KeyBuilder, validate *validator.Validate, maxSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &submissionService{
		assignments: assignmentRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		blob:        blob,
		keys:        keys,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		now:         time.Now,
	}
}

func (s *submissionService) GetForStudent(ctx context.Context, courseID uint, assignmentExternalID string, userID uint, username string) (dto.SubmissionResponse, error) {
	assignment, err := s.getAssignment(ctx, courseID, assignmentExternalID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	student, err := s.students.GetOrCreate(ctx, assignment.CourseID, userID, username)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Submit(ctx context.Context, courseID uint, assignmentExternalID string, userID uint, username string, payload dto.StudentSubmitRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.getAssignment(ctx, courseID, assignmentExternalID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if assignment.IsPastDeadline(now) {
		return dto.SubmissionResponse{}, ErrPastDeadline
	}

	if err := s.validateUpload(file); err != nil {
		observability.UploadsRejected().WithLabelValues(rejectReason(err)).Inc()
		return dto.SubmissionResponse{}, err
	}

	student, err := s.students.GetOrCreate(ctx, assignment.CourseID, userID, username)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := submission.Submit(now); err != nil {
		return dto.SubmissionResponse{}, err
	}

	key := s.keys.SubmissionKey(storage.StudentDocument, assignment.Course.ExternalID, assignment.ExternalID, assignment.Name, username, file.Filename)
	if err := s.storeDocument(ctx, key, file); err != nil {
		return dto.SubmissionResponse{}, err
	}
	observability.Uploads().WithLabelValues(string(storage.StudentDocument)).Inc()

	submission.StudentDocument = key
	submission.Description = s.sanitizer.Sanitize(payload.Description)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", updated.ID).
		Str("assignment", assignment.ExternalID).
		Str("student", username).
		Str("document_key", key).
		Msg("submission uploaded")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) GetForStaff(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (dto.SubmissionResponse, error) {
	assignment, student, err := s.getAssignmentAndStudent(ctx, courseID, assignmentExternalID, studentUsername)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// OpenDocument streams a stored submission document. The returned name is the
// basename of the storage key, for use in Content-Disposition.
func (s *submissionService) OpenDocument(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string, kind storage.DocumentKind) (io.ReadCloser, int64, string, error) {
	assignment, student, err := s.getAssignmentAndStudent(ctx, courseID, assignmentExternalID, studentUsername)
	if err != nil {
		return nil, 0, "", err
	}

	submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
	if err != nil {
		return nil, 0, "", err
	}

	key := submission.StudentDocument
	if kind == storage.GraderDocument {
		key = submission.GraderDocument
	}
	if key == "" {
		return nil, 0, "", ErrDocumentMissing
	}

	reader, size, err := s.blob.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return nil, 0, "", ErrDocumentMissing
		}
		return nil, 0, "", err
	}

	return reader, size, path.Base(key), nil
}

func (s *submissionService) getAssignment(ctx context.Context, courseID uint, externalID string) (models.Assignment, error) {
	assignment, err := s.assignments.GetByCourseAndExternalID(ctx, courseID, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *submissionService) getAssignmentAndStudent(ctx context.Context, courseID uint, assignmentExternalID, studentUsername string) (models.Assignment, models.Student, error) {
	assignment, err := s.getAssignment(ctx, courseID, assignmentExternalID)
	if err != nil {
		return models.Assignment{}, models.Student{}, err
	}

	student, err := s.students.GetByUsername(ctx, assignment.CourseID, studentUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Student{}, ErrStudentNotFound
		}
		return models.Assignment{}, models.Student{}, err
	}

	return assignment, student, nil
}

func (s *submissionService) validateUpload(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > s.maxSize {
		return ErrFileTooLarge
	}
	return validateDocumentType(file)
}

func (s *submissionService) storeDocument(ctx context.Context, key string, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer reader.Close()

	if err := s.blob.Put(ctx, key, reader, file.Size); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	return nil
}

func validateDocumentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain", "image/png", "image/jpeg"}
	for _, candidate := range allowed {
		if mime.Is(candidate) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, mime.String())
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrFileRequired):
		return "missing"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, ErrFileTypeNotAllowed):
		return "bad_type"
	default:
		return "other"
	}
}
