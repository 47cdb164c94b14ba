package submission

import (
	"time"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
)

// Status of a submission. Lifecycle: draft → {submitted, resubmitted} → graded.
// graded is terminal for the student; only grading may touch it afterwards.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusResubmitted Status = "resubmitted"
	StatusGraded      Status = "graded"
)

// RubricScore is one graded rubric criterion.
type RubricScore struct {
	Criterion string `json:"criterion"`
	Points    int    `json:"points"`
	Comment   string `json:"comment,omitempty"`
}

// Grade is the outcome of grading. Percentage and LetterGrade are derived from
// Points and the assignment's total; they are never set independently.
type Grade struct {
	Points      int       `json:"points"`
	Percentage  float64   `json:"percentage"`
	LetterGrade string    `json:"letter_grade"`
	GradedAt    time.Time `json:"graded_at"` // UTC
	GradedBy    string    `json:"graded_by"`
}

// Submission is a student's attempt at an assignment. At most one exists per
// (assignment, student) pair.
type Submission struct {
	ID             string   `json:"id"`
	AssignmentID   string   `json:"assignment_id"`
	StudentID      string   `json:"student_id"`
	SubmissionText string   `json:"submission_text,omitempty"`
	Attachments    []string `json:"attachments,omitempty"`
	// IsLate is computed when the submission is created or updated, never
	// re-derived on reads.
	IsLate       bool          `json:"is_late"`
	Status       Status        `json:"status"`
	SubmittedAt  time.Time     `json:"submitted_at"` // UTC
	Feedback     string        `json:"feedback,omitempty"`
	RubricScores []RubricScore `json:"rubric_scores,omitempty"`
	Grade        *Grade        `json:"grade,omitempty"`
	CreatedAt    time.Time     `json:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at"` // UTC
}

// Access returns the view of this submission the authorization predicates read.
func (s Submission) Access() access.Submission {
	return access.Submission{
		StudentID: s.StudentID,
		Graded:    s.Status == StatusGraded,
	}
}

// NewSubmission contains information needed to create a new Submission.
// AsDraft saves work in progress without submitting it.
type NewSubmission struct {
	AssignmentID   string   `json:"assignment_id" validate:"required"`
	SubmissionText string   `json:"submission_text"`
	Attachments    []string `json:"attachments"`
	AsDraft        bool     `json:"as_draft"`
}

func (ns *NewSubmission) Validate() error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.SubmissionText = core.CleanString(ns.SubmissionText)
	return core.Validate.Struct(ns)
}

// UpdateSubmission defines what information may be provided to modify an
// existing Submission. Only non-nil fields are applied.
type UpdateSubmission struct {
	SubmissionText *string   `json:"submission_text"`
	Attachments    *[]string `json:"attachments"`
}

func (us *UpdateSubmission) Validate() error {
	if us.SubmissionText != nil {
		*us.SubmissionText = core.CleanString(*us.SubmissionText)
	}
	return core.Validate.Struct(us)
}

func (us UpdateSubmission) apply(sub *Submission) {
	if us.SubmissionText != nil {
		sub.SubmissionText = *us.SubmissionText
	}
	if us.Attachments != nil {
		sub.Attachments = *us.Attachments
	}
}

// GradeInput contains information needed to grade a Submission. Points must be
// within [0, assignment.TotalPoints]; out-of-range values are rejected, not clamped.
type GradeInput struct {
	Points       int           `json:"points" validate:"min=0"`
	Feedback     string        `json:"feedback"`
	RubricScores []RubricScore `json:"rubric_scores"`
}

func (gi *GradeInput) Validate() error {
	gi.Feedback = core.CleanString(gi.Feedback)
	return core.Validate.Struct(gi)
}
