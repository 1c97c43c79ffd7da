package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/models"
)

func TestGraderDeleteDetachesRoster(t *testing.T) {
	db := setupTestDB(t)
	fixture := seedCourse(t, db, 2)

	grader := models.Grader{CourseID: fixture.course.ID, UserID: 7, Username: "grader", MaxStudents: 10}
	require.NoError(t, db.Create(&grader).Error)
	require.NoError(t, db.Model(&models.Student{}).
		Where("course_id = ?", fixture.course.ID).
		Update("grader_id", grader.ID).Error)

	repo := NewGraderRepository(db)
	require.NoError(t, repo.Delete(context.Background(), grader.ID))

	var students []models.Student
	require.NoError(t, db.Where("course_id = ?", fixture.course.ID).Find(&students).Error)
	require.Len(t, students, 2, "students survive grader removal")
	for _, student := range students {
		require.Nil(t, student.GraderID)
	}

	_, err := repo.GetByID(context.Background(), grader.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGraderAvailableSlots(t *testing.T) {
	db := setupTestDB(t)
	fixture := seedCourse(t, db, 2)

	grader := models.Grader{CourseID: fixture.course.ID, UserID: 7, Username: "grader", MaxStudents: 3}
	require.NoError(t, db.Create(&grader).Error)
	require.NoError(t, db.Model(&models.Student{}).
		Where("course_id = ?", fixture.course.ID).
		Update("grader_id", grader.ID).Error)

	repo := NewGraderRepository(db)
	loaded, err := repo.GetByID(context.Background(), grader.ID)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.AvailableSlots())
}

func TestStudentGetOrCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	fixture := seedCourse(t, db, 0)

	repo := NewStudentRepository(db)

	first, err := repo.GetOrCreate(context.Background(), fixture.course.ID, 42, "alice")
	require.NoError(t, err)

	second, err := repo.GetOrCreate(context.Background(), fixture.course.ID, 42, "alice")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
