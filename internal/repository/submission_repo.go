package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradekit/sga-api/internal/models"
)

// SubmissionScope optionally narrows counter queries to one grader's roster.
type SubmissionScope struct {
	GraderID *uint
}

// SubmissionRepository defines data operations for submissions, including the
// derived counter queries used by the progress views.
type SubmissionRepository interface {
	GetOrCreate(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	ListForExport(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	CountByStatus(ctx context.Context, assignmentID uint, status models.SubmissionStatus, scope SubmissionScope) (int64, error)
	CountGradedByUser(ctx context.Context, courseID, graderUserID uint) (int64, error)
	CountUngradedForGrader(ctx context.Context, courseID, graderID uint) (int64, error)
	CountUngradedForStudent(ctx context.Context, courseID, studentID uint) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Assignment.Course").
		Preload("Student")
}

// GetOrCreate materialises the submission row for an (assignment, student)
// pairing. The insert is an ON CONFLICT DO NOTHING upsert: two concurrent
// requests resolve to the same row instead of violating the uniqueness
// constraint.
func (r *submissionRepository) GetOrCreate(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       models.StatusUnsubmitted,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}

	var existing models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&existing).Error; err != nil {
		return models.Submission{}, err
	}

	return existing, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListForExport returns the submissions whose student documents belong in the
// assignment's zip archive, in a stable order.
func (r *submissionRepository) ListForExport(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("status IN ?", []models.SubmissionStatus{models.StatusSubmitted, models.StatusGraded}).
		Where("student_document <> ''").
		Order("id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// CountByStatus is a direct predicate count; the unsubmitted family counts
// materialised rows rather than subtracting, so its accuracy depends on
// GetOrCreate having run for every student in scope.
func (r *submissionRepository) CountByStatus(ctx context.Context, assignmentID uint, status models.SubmissionStatus, scope SubmissionScope) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submissions.assignment_id = ?", assignmentID).
		Where("submissions.status = ?", status)

	if scope.GraderID != nil {
		query = query.
			Joins("JOIN students ON students.id = submissions.student_id").
			Where("students.grader_id = ?", *scope.GraderID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) CountGradedByUser(ctx context.Context, courseID, graderUserID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("assignments.course_id = ?", courseID).
		Where("submissions.status = ?", models.StatusGraded).
		Where("submissions.graded_by = ?", graderUserID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountUngradedForGrader counts submitted-but-ungraded work across the course
// for the students on one grader's roster.
func (r *submissionRepository) CountUngradedForGrader(ctx context.Context, courseID, graderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("JOIN students ON students.id = submissions.student_id").
		Where("assignments.course_id = ?", courseID).
		Where("students.grader_id = ?", graderID).
		Where("submissions.status = ?", models.StatusSubmitted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) CountUngradedForStudent(ctx context.Context, courseID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("assignments.course_id = ?", courseID).
		Where("submissions.student_id = ?", studentID).
		Where("submissions.status = ?", models.StatusSubmitted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
