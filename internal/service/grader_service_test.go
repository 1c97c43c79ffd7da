package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/repository"
)

func newGraderService(t *testing.T) (GraderService, *gorm.DB, models.Course) {
	t.Helper()
	db := setupServiceDB(t)

	course := models.Course{ExternalID: "cs101", Name: "Intro CS"}
	require.NoError(t, db.Create(&course).Error)

	svc := NewGraderService(
		repository.NewGraderRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubmissionRepository(db),
		newValidator(),
		zerolog.Nop(),
	)
	return svc, db, course
}

func TestEnrollGraderDefaultsCapacity(t *testing.T) {
	svc, _, course := newGraderService(t)

	grader, err := svc.Enroll(context.Background(), course.ID, dto.EnrollGraderRequest{
		UserID:   10,
		Username: "gina",
	})
	require.NoError(t, err)
	require.Equal(t, 10, grader.MaxStudents)
	require.Equal(t, 10, grader.AvailableSlots)
}

func TestEnrollGraderRejectsInvalidPayload(t *testing.T) {
	svc, _, course := newGraderService(t)

	_, err := svc.Enroll(context.Background(), course.ID, dto.EnrollGraderRequest{Username: "gina"})
	require.Error(t, err)
}

func TestAssignStudentEnforcesCapacity(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	grader := models.Grader{CourseID: course.ID, UserID: 10, Username: "gina", MaxStudents: 1}
	require.NoError(t, db.Create(&grader).Error)

	first := models.Student{CourseID: course.ID, UserID: 20, Username: "sam"}
	second := models.Student{CourseID: course.ID, UserID: 21, Username: "ana"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	require.NoError(t, svc.AssignStudent(ctx, course.ID, first.ID, &grader.ID))

	err := svc.AssignStudent(ctx, course.ID, second.ID, &grader.ID)
	require.ErrorIs(t, err, ErrGraderFull)
}

func TestAssignStudentNullClearsGrader(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	grader := models.Grader{CourseID: course.ID, UserID: 10, Username: "gina", MaxStudents: 5}
	require.NoError(t, db.Create(&grader).Error)
	student := models.Student{CourseID: course.ID, UserID: 20, Username: "sam", GraderID: &grader.ID}
	require.NoError(t, db.Create(&student).Error)

	require.NoError(t, svc.AssignStudent(ctx, course.ID, student.ID, nil))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, student.ID).Error)
	require.Nil(t, reloaded.GraderID)
}

func TestAssignStudentRejectsForeignCourse(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	other := models.Course{ExternalID: "cs999", Name: "Other"}
	require.NoError(t, db.Create(&other).Error)
	student := models.Student{CourseID: other.ID, UserID: 20, Username: "sam"}
	require.NoError(t, db.Create(&student).Error)

	err := svc.AssignStudent(ctx, course.ID, student.ID, nil)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRemoveGraderDetachesRoster(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	grader := models.Grader{CourseID: course.ID, UserID: 10, Username: "gina", MaxStudents: 5}
	require.NoError(t, db.Create(&grader).Error)
	student := models.Student{CourseID: course.ID, UserID: 20, Username: "sam", GraderID: &grader.ID}
	require.NoError(t, db.Create(&student).Error)

	require.NoError(t, svc.Remove(ctx, course.ID, grader.ID))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, student.ID).Error)
	require.Nil(t, reloaded.GraderID)

	err := svc.Remove(ctx, course.ID, grader.ID)
	require.ErrorIs(t, err, ErrGraderNotFound)
}

func TestListGradersIncludesWorkloadCounters(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	grader := models.Grader{CourseID: course.ID, UserID: 10, Username: "gina", MaxStudents: 5}
	require.NoError(t, db.Create(&grader).Error)
	student := models.Student{CourseID: course.ID, UserID: 20, Username: "sam", GraderID: &grader.ID}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{ExternalID: "hw1", Name: "Homework 1", CourseID: course.ID}
	require.NoError(t, db.Create(&assignment).Error)

	gradedBy := grader.UserID
	grade := 90
	require.NoError(t, db.Create(&models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Status:       models.StatusGraded,
		Grade:        &grade,
		GradedBy:     &gradedBy,
	}).Error)

	graders, err := svc.List(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, graders, 1)
	require.Equal(t, int64(1), graders[0].GradedCount)
	require.Equal(t, int64(0), graders[0].UngradedCount)
	require.Equal(t, 1, graders[0].RosterSize)
	require.Equal(t, 4, graders[0].AvailableSlots)
}

func TestGraderForUser(t *testing.T) {
	svc, db, course := newGraderService(t)
	ctx := context.Background()

	grader := models.Grader{CourseID: course.ID, UserID: 10, Username: "gina", MaxStudents: 5}
	require.NoError(t, db.Create(&grader).Error)

	found, err := svc.GraderForUser(ctx, course.ID, 10)
	require.NoError(t, err)
	require.Equal(t, grader.ID, found.ID)

	_, err = svc.GraderForUser(ctx, course.ID, 99)
	require.ErrorIs(t, err, ErrGraderNotFound)
}
