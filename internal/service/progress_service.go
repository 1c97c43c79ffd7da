package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
)

// ProgressService produces the derived grading counters for staff views.
// Counter snapshots are cached in redis for a short TTL; the underlying
// queries are direct predicate counts over eagerly materialised submission
// rows.
type ProgressService interface {
	AssignmentProgress(ctx context.Context, assignmentID uint, graderID *uint) (dto.AssignmentProgress, error)
	CourseAssignments(ctx context.Context, courseID uint, graderID *uint) ([]dto.AssignmentResponse, error)
	AssignmentDetail(ctx context.Context, courseID uint, assignmentExternalID string) (dto.AssignmentDetailResponse, error)
}

type progressService struct {
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewProgressService builds the counter aggregator.
func NewProgressService(assignmentRepo repository.AssignmentRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		assignments: assignmentRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) AssignmentProgress(ctx context.Context, assignmentID uint, graderID *uint) (dto.AssignmentProgress, error) {
	cacheKey := progressCacheKey(assignmentID, graderID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var progress dto.AssignmentProgress
			if unmarshalErr := json.Unmarshal([]byte(cached), &progress); unmarshalErr == nil {
				s.logger.Debug().Uint("assignment_id", assignmentID).Msg("progress cache hit")
				return progress, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	progress, err := s.countProgress(ctx, assignmentID, graderID)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(progress); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return progress, nil
}

func (s *progressService) countProgress(ctx context.Context, assignmentID uint, graderID *uint) (dto.AssignmentProgress, error) {
	scope := repository.SubmissionScope{GraderID: graderID}

	graded, err := s.submissions.CountByStatus(ctx, assignmentID, models.StatusGraded, scope)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}
	ungraded, err := s.submissions.CountByStatus(ctx, assignmentID, models.StatusSubmitted, scope)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}
	unsubmitted, err := s.submissions.CountByStatus(ctx, assignmentID, models.StatusUnsubmitted, scope)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}

	return dto.AssignmentProgress{
		Graded:      graded,
		Ungraded:    ungraded,
		Unsubmitted: unsubmitted,
		Total:       graded + ungraded + unsubmitted,
	}, nil
}

func (s *progressService) CourseAssignments(ctx context.Context, courseID uint, graderID *uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		progress, err := s.AssignmentProgress(ctx, assignment.ID, graderID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewAssignmentResponse(assignment, progress))
	}

	return responses, nil
}

// AssignmentDetail materialises every student's submission row for the
// assignment and returns the per-student states. The eager materialisation is
// what keeps the direct unsubmitted count accurate.
func (s *progressService) AssignmentDetail(ctx context.Context, courseID uint, assignmentExternalID string) (dto.AssignmentDetailResponse, error) {
	assignment, err := s.assignments.GetByCourseAndExternalID(ctx, courseID, assignmentExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentDetailResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentDetailResponse{}, err
	}

	students, err := s.students.ListByCourse(ctx, assignment.CourseID)
	if err != nil {
		return dto.AssignmentDetailResponse{}, err
	}

	rows := make([]dto.AssignmentStudentRow, 0, len(students))
	for _, student := range students {
		submission, err := s.submissions.GetOrCreate(ctx, assignment.ID, student.ID)
		if err != nil {
			return dto.AssignmentDetailResponse{}, err
		}
		rows = append(rows, dto.AssignmentStudentRow{
			StudentID: student.ID,
			Username:  student.Username,
			Status:    submission.Status,
			Grade:     submission.Grade,
		})
	}

	progress, err := s.countProgress(ctx, assignment.ID, nil)
	if err != nil {
		return dto.AssignmentDetailResponse{}, err
	}

	return dto.AssignmentDetailResponse{
		Assignment: dto.NewAssignmentResponse(assignment, progress),
		Students:   rows,
	}, nil
}

func progressCacheKey(assignmentID uint, graderID *uint) string {
	if graderID != nil {
		return fmt.Sprintf("progress:assignment:%d:grader:%d", assignmentID, *graderID)
	}
	return fmt.Sprintf("progress:assignment:%d", assignmentID)
}
