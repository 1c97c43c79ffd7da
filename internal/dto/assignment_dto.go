package dto

import (
	"time"

	"github.com/gradekit/sga-api/internal/models"
)

// AssignmentProgress carries the derived submission counters for one
// assignment, optionally scoped to a grader's roster.
type AssignmentProgress struct {
	Graded      int64 `json:"graded"`
	Ungraded    int64 `json:"ungraded"`
	Unsubmitted int64 `json:"unsubmitted"`
	Total       int64 `json:"total"`
}

// AssignmentResponse summarizes one assignment with its progress counters.
type AssignmentResponse struct {
	ID                 uint               `json:"id"`
	ExternalID         string             `json:"external_id"`
	Name               string             `json:"name"`
	DueDate            *time.Time         `json:"due_date"`
	GracePeriodMinutes int                `json:"grace_period_minutes"`
	CourseID           uint               `json:"course_id"`
	Progress           AssignmentProgress `json:"progress"`
}

// NewAssignmentResponse converts an Assignment model plus counters into a DTO.
func NewAssignmentResponse(assignment models.Assignment, progress AssignmentProgress) AssignmentResponse {
	return AssignmentResponse{
		ID:                 assignment.ID,
		ExternalID:         assignment.ExternalID,
		Name:               assignment.Name,
		DueDate:            assignment.DueDate,
		GracePeriodMinutes: assignment.GracePeriodMinutes,
		CourseID:           assignment.CourseID,
		Progress:           progress,
	}
}

// AssignmentStudentRow is one per-student line of the staff assignment view.
type AssignmentStudentRow struct {
	StudentID uint                    `json:"student_id"`
	Username  string                  `json:"username"`
	Status    models.SubmissionStatus `json:"status"`
	Grade     *int                    `json:"grade"`
}

// AssignmentDetailResponse is the staff assignment view: the assignment plus
// every student's submission state.
type AssignmentDetailResponse struct {
	Assignment AssignmentResponse     `json:"assignment"`
	Students   []AssignmentStudentRow `json:"students"`
}
