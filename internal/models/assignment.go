package models

import "time"

// Assignment is a gradable unit of work within a course. ExternalID is the
// identifier assigned by the upstream learning platform.
type Assignment struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	ExternalID         string       `gorm:"size:128;uniqueIndex;not null" json:"external_id"`
	Name               string       `gorm:"size:128;not null" json:"name"`
	DueDate            *time.Time   `json:"due_date"`
	GracePeriodMinutes int          `gorm:"not null;default:0" json:"grace_period_minutes"`
	CourseID           uint         `gorm:"not null" json:"course_id"`
	Course             Course       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions        []Submission `json:"-"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Deadline returns the latest accepted upload time, or nil when the
// assignment has no due date.
func (a Assignment) Deadline() *time.Time {
	if a.DueDate == nil {
		return nil
	}
	deadline := a.DueDate.Add(time.Duration(a.GracePeriodMinutes) * time.Minute)
	return &deadline
}

// IsPastDeadline reports whether uploads should be rejected at the reference time.
func (a Assignment) IsPastDeadline(reference time.Time) bool {
	deadline := a.Deadline()
	return deadline != nil && reference.After(*deadline)
}
