package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/models"
)

// CourseRepository provides access to courses and role membership lookups.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetByExternalID(ctx context.Context, externalID string) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	IsAdmin(ctx context.Context, courseID, userID uint) (bool, error)
	IsGrader(ctx context.Context, courseID, userID uint) (bool, error)
	IsStudent(ctx context.Context, courseID, userID uint) (bool, error)
	AddAdmin(ctx context.Context, admin *models.CourseAdmin) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) GetByExternalID(ctx context.Context, externalID string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) IsAdmin(ctx context.Context, courseID, userID uint) (bool, error) {
	return r.membershipExists(ctx, &models.CourseAdmin{}, courseID, userID)
}

func (r *courseRepository) IsGrader(ctx context.Context, courseID, userID uint) (bool, error) {
	return r.membershipExists(ctx, &models.Grader{}, courseID, userID)
}

func (r *courseRepository) IsStudent(ctx context.Context, courseID, userID uint) (bool, error) {
	return r.membershipExists(ctx, &models.Student{}, courseID, userID)
}

func (r *courseRepository) AddAdmin(ctx context.Context, admin *models.CourseAdmin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *courseRepository) membershipExists(ctx context.Context, model interface{}, courseID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).
		Where("course_id = ?", courseID).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
