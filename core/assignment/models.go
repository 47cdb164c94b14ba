package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
)

// Type is the kind of graded work an assignment asks for.
type Type string

const (
	TypeHomework     Type = "homework"
	TypeQuiz         Type = "quiz"
	TypeExam         Type = "exam"
	TypeProject      Type = "project"
	TypePresentation Type = "presentation"
)

var Types = []Type{TypeHomework, TypeQuiz, TypeExam, TypeProject, TypePresentation}

func (t Type) Valid() bool {
	for _, at := range Types {
		if t == at {
			return true
		}
	}
	return false
}

type Assignment struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	InstructorID string `json:"instructor_id"` // always the course's instructor
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Type         Type   `json:"type"`
	TotalPoints  int    `json:"total_points"` // > 0
	// DueDate absent means the assignment never closes and work is never late.
	DueDate             null.Time `json:"due_date,omitempty"`
	IsPublished         bool      `json:"is_published"`
	AllowLateSubmission bool      `json:"allow_late_submission"`
	LatePenalty         int       `json:"late_penalty"` // percent taken off late work; informational
	Attachments         []string  `json:"attachments,omitempty"`
	Solution            string    `json:"solution,omitempty"`
	IsSolutionVisible   bool      `json:"is_solution_visible"`
	CreatedAt           time.Time `json:"created_at"` // UTC
	UpdatedAt           time.Time `json:"updated_at"` // UTC
}

// Access returns the view of this assignment the authorization predicates read.
func (a Assignment) Access() access.Assignment {
	return access.Assignment{InstructorID: a.InstructorID}
}

// PastDue reports whether the assignment's deadline has passed at the given time.
// Assignments without a due date are never past due.
func (a Assignment) PastDue(now time.Time) bool {
	return a.DueDate.Valid && now.After(a.DueDate.Time)
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	CourseID            string    `json:"course_id" validate:"required"`
	Title               string    `json:"title" validate:"required"`
	Description         string    `json:"description"`
	Type                Type      `json:"type" validate:"required,assignmenttype"`
	TotalPoints         int       `json:"total_points" validate:"required,gt=0"`
	DueDate             null.Time `json:"due_date"`
	AllowLateSubmission bool      `json:"allow_late_submission"`
	LatePenalty         int       `json:"late_penalty" validate:"min=0,max=100"`
	Attachments         []string  `json:"attachments"`
	Solution            string    `json:"solution"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing
// Assignment. Only non-nil fields are applied.
type UpdateAssignment struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Type                *Type      `json:"type" validate:"omitempty,assignmenttype"`
	TotalPoints         *int       `json:"total_points" validate:"omitempty,gt=0"`
	DueDate             *null.Time `json:"due_date"`
	AllowLateSubmission *bool      `json:"allow_late_submission"`
	LatePenalty         *int       `json:"late_penalty" validate:"omitempty,min=0,max=100"`
	Attachments         *[]string  `json:"attachments"`
	Solution            *string    `json:"solution"`
	IsSolutionVisible   *bool      `json:"is_solution_visible"`
}

func (ua *UpdateAssignment) Validate() error {
	if ua.Title != nil {
		*ua.Title = core.CleanString(*ua.Title)
	}
	return core.Validate.Struct(ua)
}

func (ua UpdateAssignment) apply(asg *Assignment) {
	if ua.Title != nil {
		asg.Title = *ua.Title
	}
	if ua.Description != nil {
		asg.Description = *ua.Description
	}
	if ua.Type != nil {
		asg.Type = *ua.Type
	}
	if ua.TotalPoints != nil {
		asg.TotalPoints = *ua.TotalPoints
	}
	if ua.DueDate != nil {
		asg.DueDate = *ua.DueDate
	}
	if ua.AllowLateSubmission != nil {
		asg.AllowLateSubmission = *ua.AllowLateSubmission
	}
	if ua.LatePenalty != nil {
		asg.LatePenalty = *ua.LatePenalty
	}
	if ua.Attachments != nil {
		asg.Attachments = *ua.Attachments
	}
	if ua.Solution != nil {
		asg.Solution = *ua.Solution
	}
	if ua.IsSolutionVisible != nil {
		asg.IsSolutionVisible = *ua.IsSolutionVisible
	}
}
