package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradekit/sga-api/internal/models"
)

// StudentRepository provides access to course student records.
type StudentRepository interface {
	GetOrCreate(ctx context.Context, courseID, userID uint, username string) (models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUsername(ctx context.Context, courseID uint, username string) (models.Student, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Student, error)
	ListByGrader(ctx context.Context, graderID uint) ([]models.Student, error)
	AssignGrader(ctx context.Context, studentID uint, graderID *uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// GetOrCreate materialises the student row for a course on first interaction.
// The insert is an ON CONFLICT DO NOTHING upsert, so two concurrent requests
// for the same (course, user) pairing cannot create duplicates.
func (r *studentRepository) GetOrCreate(ctx context.Context, courseID, userID uint, username string) (models.Student, error) {
	student := models.Student{CourseID: courseID, UserID: userID, Username: username}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&student).Error
	if err != nil {
		return models.Student{}, err
	}

	var existing models.Student
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("user_id = ?", userID).
		First(&existing).Error; err != nil {
		return models.Student{}, err
	}

	return existing, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUsername(ctx context.Context, courseID uint, username string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("username = ?", username).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("username ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) ListByGrader(ctx context.Context, graderID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("grader_id = ?", graderID).
		Order("username ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) AssignGrader(ctx context.Context, studentID uint, graderID *uint) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", studentID).
		Update("grader_id", graderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
