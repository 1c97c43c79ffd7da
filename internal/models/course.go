package models

import "time"

// Role identifies a user's relationship to a course.
type Role string

const (
	// RoleAdmin marks course administrators.
	RoleAdmin Role = "admin"
	// RoleGrader marks course graders.
	RoleGrader Role = "grader"
	// RoleStudent marks course students.
	RoleStudent Role = "student"
	// RoleNone is returned when the user holds no role in the course.
	RoleNone Role = ""
)

// Course groups students, graders, admins and assignments. ExternalID is the
// identifier assigned by the upstream learning platform.
type Course struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	ExternalID  string        `gorm:"size:128;uniqueIndex;not null" json:"external_id"`
	Name        string        `gorm:"size:255" json:"name"`
	Admins      []CourseAdmin `json:"-"`
	Graders     []Grader      `json:"-"`
	Students    []Student     `json:"-"`
	Assignments []Assignment  `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CourseAdmin links a user to a course as an administrator.
type CourseAdmin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_course_admin_user" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_admin_user" json:"user_id"`
	Username  string    `gorm:"size:150;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grader links a user to a course as a grader with a roster capacity.
type Grader struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_course_grader_user" json:"course_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_course_grader_user" json:"user_id"`
	Username    string    `gorm:"size:150;not null" json:"username"`
	MaxStudents int       `gorm:"not null;default:10" json:"max_students"`
	Students    []Student `gorm:"foreignKey:GraderID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AvailableSlots reports how many more students the grader can accept.
func (g Grader) AvailableSlots() int {
	return g.MaxStudents - len(g.Students)
}

// Student links a user to a course, optionally assigned to a grader's roster.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_course_student_user" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_student_user" json:"user_id"`
	Username  string    `gorm:"size:150;not null" json:"username"`
	GraderID  *uint     `json:"grader_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
