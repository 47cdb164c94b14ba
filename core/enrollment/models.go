package enrollment

import (
	"time"

	"github.com/chendurkumaran/eduresource/core"
)

// Status of a student's enrollment in a course.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

var Statuses = []Status{StatusActive, StatusCompleted, StatusDropped}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Enrollment ties a student to a course. It is the source of truth consulted
// for assignment notification fan-out and progress aggregation.
type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"`  // UTC
}

// NewEnrollment contains information needed to enroll a student in a course.
type NewEnrollment struct {
	CourseID string `json:"course_id" validate:"required"`
}

func (ne *NewEnrollment) Validate() error {
	ne.CourseID = core.CleanString(ne.CourseID)
	return core.Validate.Struct(ne)
}
