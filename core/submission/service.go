package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/assignment"
)

var (
	// errors
	ErrNotFound = errors.New("submission not found")
	ErrExists   = errors.New("a submission already exists for this assignment")
	ErrClosed   = errors.New("assignment is past due and does not accept late submissions")
)

type (
	Repository interface {
		// CheckSubmissionUniqueness returns ErrExists when the student already
		// has a submission for the assignment. The check and a subsequent
		// insert are atomic per (assignment, student) pair at the store level.
		CheckSubmissionUniqueness(ctx context.Context, assignmentID, studentID string) error
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (Submission, error)
		// QuerySubmissionsByAssignment returns submissions ordered by submission time, oldest first.
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		DeleteSubmissionsByID(ctx context.Context, ids ...string) (int, error)
	}

	// AssignmentGetter is the slice of the assignment store this service needs.
	AssignmentGetter interface {
		GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error)
	}

	Service interface {
		Create(ctx context.Context, actor access.Actor, ns NewSubmission) (Submission, error)
		Get(ctx context.Context, actor access.Actor, id string) (Submission, error)
		GetOwn(ctx context.Context, actor access.Actor, assignmentID string) (Submission, error)
		QueryByAssignment(ctx context.Context, actor access.Actor, assignmentID string) ([]Submission, error)
		Update(ctx context.Context, actor access.Actor, id string, us UpdateSubmission) (Submission, error)
		Grade(ctx context.Context, actor access.Actor, id string, gi GradeInput) (Submission, error)
		Delete(ctx context.Context, actor access.Actor, id string) error
	}

	service struct {
		repo        Repository
		assignments AssignmentGetter
		storage     core.FileStorage
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, assignments AssignmentGetter, storage core.FileStorage, logger core.Logger) Service {
	return &service{repo: repo, assignments: assignments, storage: storage, logger: logger}
}

// Create records a student's work on an assignment, as a draft or submitted.
// There is a single creation path: drafts and direct submissions only differ
// in the resulting status.
func (svc *service) Create(ctx context.Context, actor access.Actor, ns NewSubmission) (Submission, error) {
	if !actor.Authenticated() {
		return Submission{}, access.ErrUnauthenticated
	}
	if !actor.IsStudent {
		return Submission{}, access.NewPermissionError("only students may submit work")
	}

	asg, err := svc.assignments.GetAssignmentByID(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if !asg.IsPublished {
		return Submission{}, assignment.ErrNotFound
	}

	if err := svc.repo.CheckSubmissionUniqueness(ctx, asg.ID, actor.ID); err != nil {
		if err == ErrExists {
			return Submission{}, core.NewConflictError(err.Error())
		}
		return Submission{}, err
	}

	now := time.Now().UTC()
	status := StatusSubmitted
	if ns.AsDraft {
		status = StatusDraft
	}
	sub := Submission{
		ID:             uuid.New().String(),
		AssignmentID:   asg.ID,
		StudentID:      actor.ID,
		SubmissionText: ns.SubmissionText,
		Attachments:    ns.Attachments,
		IsLate:         asg.PastDue(now),
		Status:         status,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err == ErrExists { // lost the race to a concurrent create
		return Submission{}, core.NewConflictError(err.Error())
	}
	return sub, err
}

// Get returns a submission to its owner, the assignment's instructor or an admin.
func (svc *service) Get(ctx context.Context, actor access.Actor, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if actor.Authenticated() && actor.ID == sub.StudentID {
		return sub, nil
	}
	asg, err := svc.assignments.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := access.CanGradeSubmission(actor, sub.Access(), asg.Access()).Err(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// GetOwn returns the actor's own submission for an assignment, if any.
func (svc *service) GetOwn(ctx context.Context, actor access.Actor, assignmentID string) (Submission, error) {
	if !actor.Authenticated() {
		return Submission{}, access.ErrUnauthenticated
	}
	return svc.repo.GetSubmissionByAssignmentAndStudent(ctx, assignmentID, actor.ID)
}

func (svc *service) QueryByAssignment(ctx context.Context, actor access.Actor, assignmentID string) ([]Submission, error) {
	asg, err := svc.assignments.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := access.CanGradeSubmission(actor, access.Submission{}, asg.Access()).Err(); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissionsByAssignment(ctx, assignmentID)
}

// Update lets the owning student revise ungraded work. Past the due date the
// assignment must allow late submissions, otherwise the attempt is rejected
// with a precondition failure. A successful revision of already-submitted work
// moves it to resubmitted; revising a draft submits it.
func (svc *service) Update(ctx context.Context, actor access.Actor, id string, us UpdateSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if err := access.CanMutateSubmission(actor, sub.Access()).Err(); err != nil {
		return Submission{}, err
	}

	asg, err := svc.assignments.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	now := time.Now().UTC()
	if asg.PastDue(now) && !asg.AllowLateSubmission {
		return Submission{}, core.NewPreconditionError(ErrClosed.Error())
	}

	us.apply(&sub)
	if sub.Status == StatusDraft {
		sub.Status = StatusSubmitted
	} else {
		sub.Status = StatusResubmitted
	}
	sub.IsLate = asg.PastDue(now)
	sub.SubmittedAt = now
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Grade scores a submission. Points outside [0, TotalPoints] are rejected;
// values are never clamped. Percentage and letter grade are derived from the
// points. Re-grading is allowed and overwrites the previous grade.
func (svc *service) Grade(ctx context.Context, actor access.Actor, id string, gi GradeInput) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	asg, err := svc.assignments.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := access.CanGradeSubmission(actor, sub.Access(), asg.Access()).Err(); err != nil {
		return Submission{}, err
	}

	if gi.Points < 0 || gi.Points > asg.TotalPoints {
		return Submission{}, core.NewValidationError(nil, core.FieldError{
			Field: "points",
			Error: fmt.Sprintf("must be between 0 and %d", asg.TotalPoints),
		})
	}

	now := time.Now().UTC()
	pct := Percentage(gi.Points, asg.TotalPoints)
	sub.Grade = &Grade{
		Points:      gi.Points,
		Percentage:  pct,
		LetterGrade: LetterGrade(pct),
		GradedAt:    now,
		GradedBy:    actor.ID,
	}
	sub.Feedback = gi.Feedback
	sub.RubricScores = gi.RubricScores
	sub.Status = StatusGraded
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Delete removes a submission. The owner may delete their own ungraded work;
// the assignment's instructor and admins may always delete. Attachment cleanup
// is best effort and never fails the deletion.
func (svc *service) Delete(ctx context.Context, actor access.Actor, id string) error {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return err
	}

	if dec := access.CanMutateSubmission(actor, sub.Access()); !dec.Allowed() {
		asg, err := svc.assignments.GetAssignmentByID(ctx, sub.AssignmentID)
		if err != nil {
			return err
		}
		if err := access.CanGradeSubmission(actor, sub.Access(), asg.Access()).Err(); err != nil {
			return err
		}
	}

	if _, err := svc.repo.DeleteSubmissionsByID(ctx, sub.ID); err != nil {
		return err
	}
	svc.cleanUpAttachments(sub)
	return nil
}

func (svc *service) cleanUpAttachments(sub Submission) {
	if svc.storage == nil || len(sub.Attachments) == 0 {
		return
	}
	keys := sub.Attachments
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, key := range keys {
			if err := svc.storage.Delete(ctx, key); err != nil {
				svc.logger.Error(fmt.Sprintf("deleting submission attachment %s: %v", key, err))
			}
		}
	}()
}
