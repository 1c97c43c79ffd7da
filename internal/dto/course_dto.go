package dto

import (
	"github.com/gradekit/sga-api/internal/models"
)

// CourseResponse summarizes a course together with the caller's role in it.
type CourseResponse struct {
	ID         uint        `json:"id"`
	ExternalID string      `json:"external_id"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(course models.Course, role models.Role) CourseResponse {
	return CourseResponse{
		ID:         course.ID,
		ExternalID: course.ExternalID,
		Name:       course.Name,
		Role:       role,
	}
}

// StudentListItem is one row of the staff student list.
type StudentListItem struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	GraderID      *uint  `json:"grader_id"`
	UngradedCount int64  `json:"ungraded_count"`
}

// EnrollGraderRequest enrolls a user as a grader in a course.
type EnrollGraderRequest struct {
	UserID      uint   `json:"user_id" validate:"required,gt=0"`
	Username    string `json:"username" validate:"required,min=1,max=150"`
	MaxStudents int    `json:"max_students" validate:"omitempty,gt=0"`
}

// AssignGraderRequest moves a student onto a grader's roster. A null grader
// clears the assignment.
type AssignGraderRequest struct {
	GraderID *uint `json:"grader_id"`
}

// GraderResponse is one row of the admin grader list.
type GraderResponse struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	MaxStudents    int    `json:"max_students"`
	RosterSize     int    `json:"roster_size"`
	AvailableSlots int    `json:"available_slots"`
	GradedCount    int64  `json:"graded_count"`
	UngradedCount  int64  `json:"ungraded_count"`
}

// NewGraderResponse converts a Grader model plus its counters into a DTO.
func NewGraderResponse(grader models.Grader, gradedCount, ungradedCount int64) GraderResponse {
	return GraderResponse{
		ID:             grader.ID,
		UserID:         grader.UserID,
		Username:       grader.Username,
		MaxStudents:    grader.MaxStudents,
		RosterSize:     len(grader.Students),
		AvailableSlots: grader.AvailableSlots(),
		GradedCount:    gradedCount,
		UngradedCount:  ungradedCount,
	}
}
