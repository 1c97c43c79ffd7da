package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.CourseAdmin{},
		&models.Grader{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
	))
	return db
}

type courseFixture struct {
	course   models.Course
	students []models.Student
}

func seedCourse(t *testing.T, db *gorm.DB, studentCount int) courseFixture {
	t.Helper()

	course := models.Course{ExternalID: "test_course", Name: "Test Course"}
	require.NoError(t, db.Create(&course).Error)

	students := make([]models.Student, 0, studentCount)
	for i := 0; i < studentCount; i++ {
		student := models.Student{
			CourseID: course.ID,
			UserID:   uint(100 + i),
			Username: fmt.Sprintf("student%d", i),
		}
		require.NoError(t, db.Create(&student).Error)
		students = append(students, student)
	}

	return courseFixture{course: course, students: students}
}
