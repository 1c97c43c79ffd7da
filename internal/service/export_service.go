package service

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/export"
	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/observability"
	"github.com/gradekit/sga-api/internal/repository"
	"github.com/gradekit/sga-api/internal/storage"
)

// ExportService builds streamable zip archives of submission documents.
type ExportService interface {
	// AssignmentArchive returns the suggested download name (without the .zip
	// extension) and the lazily-opened archive entries for one assignment.
	AssignmentArchive(ctx context.Context, courseID uint, assignmentExternalID string) (string, []export.Entry, error)
	// Stream writes the archive to w, flushing after every entry.
	Stream(ctx context.Context, entries []export.Entry, w io.Writer, flush func() error) error
}

type exportService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	blob        storage.Blob
	logger      zerolog.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, blob storage.Blob, logger zerolog.Logger) ExportService {
	return &exportService{
		assignments: assignmentRepo,
		submissions: submissionRepo,
		blob:        blob,
		logger:      logger.With().Str("component", "export_service").Logger(),
	}
}

func (s *exportService) AssignmentArchive(ctx context.Context, courseID uint, assignmentExternalID string) (string, []export.Entry, error) {
	assignment, err := s.assignments.GetByCourseAndExternalID(ctx, courseID, assignmentExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAssignmentNotFound
		}
		return "", nil, err
	}

	submissions, err := s.submissions.ListForExport(ctx, assignment.ID)
	if err != nil {
		return "", nil, err
	}

	entries := make([]export.Entry, 0, len(submissions))
	for _, submission := range submissions {
		key := submission.StudentDocument
		entries = append(entries, export.Entry{
			Name: key,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				reader, _, err := s.blob.Get(ctx, key)
				return reader, err
			},
		})
	}

	name := assignment.ExternalID
	if name == "" {
		name = export.DefaultArchiveName
	}

	return name, entries, nil
}

func (s *exportService) Stream(ctx context.Context, entries []export.Entry, w io.Writer, flush func() error) error {
	logger := s.logger
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		logger = logger.With().Str("correlation_id", id).Logger()
	}

	err := export.WriteArchive(ctx, entries, w, flush, logger)
	if err != nil {
		observability.ExportFailures().Inc()
		return err
	}

	observability.ExportEntriesStreamed().Add(float64(len(entries)))
	return nil
}
