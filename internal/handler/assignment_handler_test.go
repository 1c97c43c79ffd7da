package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
)

func TestListAssignmentsWithProgress(t *testing.T) {
	env := setupApp(t, adminUserID, "alex")

	var student models.Student
	require.NoError(t, env.db.Where("username = ?", "sam").First(&student).Error)
	require.NoError(t, env.db.Create(&models.Submission{
		AssignmentID: env.assignment.ID,
		StudentID:    student.ID,
		Status:       models.StatusSubmitted,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/cs101/assignments", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.AssignmentResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, "hw1", payload.Data[0].ExternalID)
	require.Equal(t, int64(1), payload.Data[0].Progress.Ungraded)
	require.Equal(t, int64(1), payload.Data[0].Progress.Total)
}

func TestListAssignmentsScopedForGrader(t *testing.T) {
	env := setupApp(t, graderUserID, "gina")

	// sam is submitted but not on gina's roster, so her counters stay empty.
	var student models.Student
	require.NoError(t, env.db.Where("username = ?", "sam").First(&student).Error)
	require.NoError(t, env.db.Create(&models.Submission{
		AssignmentID: env.assignment.ID,
		StudentID:    student.ID,
		Status:       models.StatusSubmitted,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/cs101/assignments", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.AssignmentResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, int64(0), payload.Data[0].Progress.Total)
}

func TestAssignmentDetailCreatesMissingRows(t *testing.T) {
	env := setupApp(t, adminUserID, "alex")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/cs101/assignments/hw1", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.AssignmentDetailResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data.Students, 1)
	require.Equal(t, "sam", payload.Data.Students[0].Username)
	require.Equal(t, models.StatusUnsubmitted, payload.Data.Students[0].Status)
}

func TestAssignmentDetailUnknownIs404(t *testing.T) {
	env := setupApp(t, adminUserID, "alex")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/cs101/assignments/missing", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentOfAnotherCourseIs404(t *testing.T) {
	env := setupApp(t, graderUserID, "gina")

	other := models.Course{ExternalID: "bio999", Name: "Biology"}
	require.NoError(t, env.db.Create(&other).Error)
	foreign := models.Assignment{ExternalID: "bio-hw", Name: "Field Report", CourseID: other.ID}
	require.NoError(t, env.db.Create(&foreign).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/cs101/assignments/bio-hw", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
