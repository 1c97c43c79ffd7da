package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/models"
)

// GraderRepository provides access to course grader records.
type GraderRepository interface {
	Create(ctx context.Context, grader *models.Grader) error
	GetByID(ctx context.Context, id uint) (models.Grader, error)
	GetByUserID(ctx context.Context, courseID, userID uint) (models.Grader, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Grader, error)
	Delete(ctx context.Context, id uint) error
}

type graderRepository struct {
	db *gorm.DB
}

// NewGraderRepository constructs a grader repository.
func NewGraderRepository(db *gorm.DB) GraderRepository {
	return &graderRepository{db: db}
}

func (r *graderRepository) Create(ctx context.Context, grader *models.Grader) error {
	return r.db.WithContext(ctx).Create(grader).Error
}

func (r *graderRepository) GetByID(ctx context.Context, id uint) (models.Grader, error) {
	var grader models.Grader
	if err := r.db.WithContext(ctx).Preload("Students").First(&grader, id).Error; err != nil {
		return models.Grader{}, err
	}

	return grader, nil
}

func (r *graderRepository) GetByUserID(ctx context.Context, courseID, userID uint) (models.Grader, error) {
	var grader models.Grader
	if err := r.db.WithContext(ctx).
		Preload("Students").
		Where("course_id = ?", courseID).
		Where("user_id = ?", userID).
		First(&grader).Error; err != nil {
		return models.Grader{}, err
	}

	return grader, nil
}

func (r *graderRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Grader, error) {
	var graders []models.Grader
	if err := r.db.WithContext(ctx).
		Preload("Students").
		Where("course_id = ?", courseID).
		Order("username ASC").
		Find(&graders).Error; err != nil {
		return nil, err
	}

	return graders, nil
}

// Delete removes the grader and detaches its roster; the students themselves
// survive with a null grader reference.
func (r *graderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).
			Where("grader_id = ?", id).
			Update("grader_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Grader{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
