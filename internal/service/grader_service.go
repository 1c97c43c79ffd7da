package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
)

var (
	// ErrGraderNotFound indicates the grader could not be located in the course.
	ErrGraderNotFound = errors.New("grader not found")
	// ErrStudentNotFound indicates the student could not be located in the course.
	ErrStudentNotFound = errors.New("student not found")
	// ErrGraderFull indicates the grader's roster has no free slots.
	ErrGraderFull = errors.New("grader has no available student slots")
)

const defaultMaxStudents = 10

// GraderService manages grader enrollment and roster assignment.
type GraderService interface {
	Enroll(ctx context.Context, courseID uint, payload dto.EnrollGraderRequest) (dto.GraderResponse, error)
	Remove(ctx context.Context, courseID, graderID uint) error
	List(ctx context.Context, courseID uint) ([]dto.GraderResponse, error)
	AssignStudent(ctx context.Context, courseID, studentID uint, graderID *uint) error
	GraderForUser(ctx context.Context, courseID, userID uint) (models.Grader, error)
}

type graderService struct {
	graders     repository.GraderRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewGraderService constructs a GraderService instance.
func NewGraderService(graderRepo repository.GraderRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) GraderService {
	return &graderService{
		graders:     graderRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "grader_service").Logger(),
	}
}

func (s *graderService) Enroll(ctx context.Context, courseID uint, payload dto.EnrollGraderRequest) (dto.GraderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GraderResponse{}, err
	}

	maxStudents := payload.MaxStudents
	if maxStudents <= 0 {
		maxStudents = defaultMaxStudents
	}

	grader := models.Grader{
		CourseID:    courseID,
		UserID:      payload.UserID,
		Username:    payload.Username,
		MaxStudents: maxStudents,
	}
	if err := s.graders.Create(ctx, &grader); err != nil {
		return dto.GraderResponse{}, err
	}

	s.logger.Info().Uint("grader_id", grader.ID).Uint("course_id", courseID).Msg("grader enrolled")

	return dto.NewGraderResponse(grader, 0, 0), nil
}

func (s *graderService) Remove(ctx context.Context, courseID, graderID uint) error {
	grader, err := s.graders.GetByID(ctx, graderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGraderNotFound
		}
		return err
	}
	if grader.CourseID != courseID {
		return ErrGraderNotFound
	}

	if err := s.graders.Delete(ctx, graderID); err != nil {
		return err
	}

	s.logger.Info().Uint("grader_id", graderID).Uint("course_id", courseID).Msg("grader removed, roster detached")

	return nil
}

func (s *graderService) List(ctx context.Context, courseID uint) ([]dto.GraderResponse, error) {
	graders, err := s.graders.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GraderResponse, 0, len(graders))
	for _, grader := range graders {
		graded, err := s.submissions.CountGradedByUser(ctx, courseID, grader.UserID)
		if err != nil {
			return nil, err
		}
		ungraded, err := s.submissions.CountUngradedForGrader(ctx, courseID, grader.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewGraderResponse(grader, graded, ungraded))
	}

	return responses, nil
}

func (s *graderService) GraderForUser(ctx context.Context, courseID, userID uint) (models.Grader, error) {
	grader, err := s.graders.GetByUserID(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Grader{}, ErrGraderNotFound
		}
		return models.Grader{}, err
	}

	return grader, nil
}

func (s *graderService) AssignStudent(ctx context.Context, courseID, studentID uint, graderID *uint) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if student.CourseID != courseID {
		return ErrStudentNotFound
	}

	if graderID != nil {
		grader, err := s.graders.GetByID(ctx, *graderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGraderNotFound
			}
			return err
		}
		if grader.CourseID != courseID {
			return ErrGraderNotFound
		}
		if grader.AvailableSlots() <= 0 {
			return ErrGraderFull
		}
	}

	if err := s.students.AssignGrader(ctx, student.ID, graderID); err != nil {
		return err
	}

	s.logger.Info().Uint("student_id", student.ID).Uint("course_id", courseID).Msg("student roster assignment updated")

	return nil
}
