package models

import (
	"errors"
	"fmt"
	"time"
)

// SubmissionStatus is the explicit lifecycle state of a submission.
type SubmissionStatus string

const (
	// StatusUnsubmitted indicates no document has been handed in.
	StatusUnsubmitted SubmissionStatus = "unsubmitted"
	// StatusSubmitted indicates the student uploaded a document.
	StatusSubmitted SubmissionStatus = "submitted"
	// StatusGraded indicates a grader recorded a grade.
	StatusGraded SubmissionStatus = "graded"
)

// ErrInvalidTransition is returned when a lifecycle transition is not allowed
// from the submission's current status.
var ErrInvalidTransition = errors.New("invalid submission state transition")

// Submission records one student's work product for one assignment and its
// grading outcome. The (assignment, student) pairing is unique.
type Submission struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	AssignmentID uint             `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID    uint             `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	Assignment   Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Status       SubmissionStatus `gorm:"size:32;not null;default:unsubmitted" json:"status"`

	Description string `gorm:"type:text" json:"description"`
	Feedback    string `gorm:"type:text" json:"feedback"`
	Grade       *int   `json:"grade"`

	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`
	GradedBy    *uint      `json:"graded_by"`

	StudentDocument string `gorm:"size:512" json:"student_document"`
	GraderDocument  string `gorm:"size:512" json:"grader_document"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submit transitions the submission into the submitted state. Re-submitting is
// allowed and refreshes the timestamp; a graded submission must be unsubmitted
// first.
func (s *Submission) Submit(now time.Time) error {
	if s.Status == StatusGraded {
		return fmt.Errorf("%w: cannot submit while graded", ErrInvalidTransition)
	}
	s.Status = StatusSubmitted
	s.SubmittedAt = &now
	return nil
}

// RecordGrade transitions the submission into the graded state. Regrading an
// already graded submission is allowed.
func (s *Submission) RecordGrade(grade int, graderUserID uint, now time.Time) error {
	if s.Status == StatusUnsubmitted {
		return fmt.Errorf("%w: cannot grade an unsubmitted submission", ErrInvalidTransition)
	}
	s.Status = StatusGraded
	s.Grade = &grade
	s.GradedAt = &now
	s.GradedBy = &graderUserID
	return nil
}

// Unsubmit is the admin reset edge. Grade, feedback and document fields are
// deliberately left untouched; only the lifecycle state is rewound.
func (s *Submission) Unsubmit() {
	s.Status = StatusUnsubmitted
}

// IsSubmitted reports whether a document has been handed in.
func (s Submission) IsSubmitted() bool {
	return s.Status == StatusSubmitted || s.Status == StatusGraded
}

// IsGraded reports whether the submission has a recorded grade.
func (s Submission) IsGraded() bool {
	return s.Status == StatusGraded
}

// GradeDisplay renders the grade for humans. Grades are always out of 100, so
// the raw score doubles as the percentage.
func (s Submission) GradeDisplay() string {
	if s.Grade == nil {
		return "(Not Graded)"
	}
	return fmt.Sprintf("%d/100 (%d%%)", *s.Grade, *s.Grade)
}
