package dto

import (
	"time"

	"github.com/gradekit/sga-api/internal/models"
)

// StudentSubmitRequest describes the multipart payload for a student upload.
type StudentSubmitRequest struct {
	Description string `form:"description" validate:"omitempty,max=10000"`
}

// GradeSubmissionRequest describes the multipart payload for grading. The
// graded document file is optional and handled separately by the handler.
type GradeSubmissionRequest struct {
	Grade    *int   `form:"grade" validate:"required,gte=0,lte=100"`
	Feedback string `form:"feedback" validate:"omitempty,max=10000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                    `json:"id"`
	AssignmentID uint                    `json:"assignment_id"`
	StudentID    uint                    `json:"student_id"`
	Status       models.SubmissionStatus `json:"status"`
	Description  string                  `json:"description"`
	Feedback     string                  `json:"feedback"`
	Grade        *int                    `json:"grade"`
	GradeDisplay string                  `json:"grade_display"`
	SubmittedAt  *time.Time              `json:"submitted_at"`
	GradedAt     *time.Time              `json:"graded_at"`
	GradedBy     *uint                   `json:"graded_by"`

	StudentDocument string `json:"student_document"`
	GraderDocument  string `json:"grader_document"`

	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Assignment AssignmentLite `json:"assignment"`
	Student    StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID         uint       `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	DueDate    *time.Time `json:"due_date"`
}

// StudentLite summarizes a student in submission responses.
type StudentLite struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Status:          model.Status,
		Description:     model.Description,
		Feedback:        model.Feedback,
		Grade:           model.Grade,
		GradeDisplay:    model.GradeDisplay(),
		SubmittedAt:     model.SubmittedAt,
		GradedAt:        model.GradedAt,
		GradedBy:        model.GradedBy,
		StudentDocument: model.StudentDocument,
		GraderDocument:  model.GraderDocument,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:         model.Assignment.ID,
			ExternalID: model.Assignment.ExternalID,
			Name:       model.Assignment.Name,
			DueDate:    model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			Username: model.Student.Username,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
