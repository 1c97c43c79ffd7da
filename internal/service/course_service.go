package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
)

// ErrCourseNotFound indicates the course could not be located. It is the
// sentinel the course-role guard matches against, so it must stay identical
// to the one the resolver contract declares.
var ErrCourseNotFound = middleware.ErrCourseNotFound

// RoleResolver maps a (user, course) pair to the user's course role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID, courseID uint) (models.Role, error)
	GetCourseByExternalID(ctx context.Context, externalID string) (models.Course, error)
}

// CourseService exposes course lookups, role resolution and the staff
// student list.
type CourseService interface {
	RoleResolver
	GetCourse(ctx context.Context, externalID string, userID uint) (dto.CourseResponse, error)
	ListStudents(ctx context.Context, courseID uint) ([]dto.StudentListItem, error)
}

type courseService struct {
	courses     repository.CourseRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courseRepo repository.CourseRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courseRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

// ResolveRole returns the user's course role. Admin and grader membership both
// take precedence over student membership, so a user enrolled in several
// relation sets reports the highest-privilege role.
func (s *courseService) ResolveRole(ctx context.Context, userID, courseID uint) (models.Role, error) {
	isAdmin, err := s.courses.IsAdmin(ctx, courseID, userID)
	if err != nil {
		return models.RoleNone, err
	}
	if isAdmin {
		return models.RoleAdmin, nil
	}

	isGrader, err := s.courses.IsGrader(ctx, courseID, userID)
	if err != nil {
		return models.RoleNone, err
	}
	if isGrader {
		return models.RoleGrader, nil
	}

	isStudent, err := s.courses.IsStudent(ctx, courseID, userID)
	if err != nil {
		return models.RoleNone, err
	}
	if isStudent {
		return models.RoleStudent, nil
	}

	return models.RoleNone, nil
}

func (s *courseService) GetCourseByExternalID(ctx context.Context, externalID string) (models.Course, error) {
	course, err := s.courses.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, externalID string, userID uint) (dto.CourseResponse, error) {
	course, err := s.GetCourseByExternalID(ctx, externalID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	role, err := s.ResolveRole(ctx, userID, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course, role), nil
}

func (s *courseService) ListStudents(ctx context.Context, courseID uint) ([]dto.StudentListItem, error) {
	students, err := s.students.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StudentListItem, 0, len(students))
	for _, student := range students {
		ungraded, err := s.submissions.CountUngradedForStudent(ctx, courseID, student.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.StudentListItem{
			ID:            student.ID,
			Username:      student.Username,
			GraderID:      student.GraderID,
			UngradedCount: ungraded,
		})
	}

	return items, nil
}
