package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/course"
)

var (
	// errors
	ErrNotFound = errors.New("enrollment not found")
	ErrExists   = errors.New("student is already enrolled in this course")
	ErrFull     = errors.New("course is full")
)

type (
	Repository interface {
		// CheckEnrollmentUniqueness returns ErrExists when the student already
		// has an enrollment for the course. The check and a subsequent insert
		// are atomic per (course, student) pair at the store level.
		CheckEnrollmentUniqueness(ctx context.Context, courseID, studentID string) error
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, courseID, studentID string) (Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, courseID string, activeOnly bool) ([]Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	}

	// CourseGetter is the slice of the course store this service needs.
	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	Service interface {
		Enroll(ctx context.Context, actor access.Actor, ne NewEnrollment) (Enrollment, error)
		Drop(ctx context.Context, actor access.Actor, courseID string) (Enrollment, error)
		Complete(ctx context.Context, actor access.Actor, courseID, studentID string) (Enrollment, error)
		QueryByCourse(ctx context.Context, actor access.Actor, courseID string, activeOnly bool) ([]Enrollment, error)
		QueryByStudent(ctx context.Context, actor access.Actor, studentID string) ([]Enrollment, error)
	}

	service struct {
		repo    Repository
		courses CourseGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses CourseGetter) Service {
	return &service{repo: repo, courses: courses}
}

func (svc *service) Enroll(ctx context.Context, actor access.Actor, ne NewEnrollment) (Enrollment, error) {
	if !actor.Authenticated() {
		return Enrollment{}, access.ErrUnauthenticated
	}

	crs, err := svc.courses.GetCourseByID(ctx, ne.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if err := access.CanViewCourse(actor, crs.Access()).Err(); err != nil {
		return Enrollment{}, err
	}

	if err := svc.repo.CheckEnrollmentUniqueness(ctx, crs.ID, actor.ID); err != nil {
		if err == ErrExists {
			return Enrollment{}, core.NewConflictError(err.Error())
		}
		return Enrollment{}, err
	}

	if crs.MaxStudents > 0 {
		active, err := svc.repo.QueryEnrollmentsByCourse(ctx, crs.ID, true /* activeOnly */)
		if err != nil {
			return Enrollment{}, err
		}
		if len(active) >= crs.MaxStudents {
			return Enrollment{}, core.NewPreconditionError(ErrFull.Error())
		}
	}

	now := time.Now().UTC()
	enr := Enrollment{
		ID:         uuid.New().String(),
		CourseID:   crs.ID,
		StudentID:  actor.ID,
		Status:     StatusActive,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *service) Drop(ctx context.Context, actor access.Actor, courseID string) (Enrollment, error) {
	if !actor.Authenticated() {
		return Enrollment{}, access.ErrUnauthenticated
	}
	enr, err := svc.repo.GetEnrollment(ctx, courseID, actor.ID)
	if err != nil {
		return Enrollment{}, err
	}
	enr.Status = StatusDropped
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

// Complete marks a student's enrollment completed; only the course's instructor
// or an admin may do this.
func (svc *service) Complete(ctx context.Context, actor access.Actor, courseID, studentID string) (Enrollment, error) {
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if err := access.CanManageEnrollments(actor, crs.Access()).Err(); err != nil {
		return Enrollment{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, courseID, studentID)
	if err != nil {
		return Enrollment{}, err
	}
	enr.Status = StatusCompleted
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

func (svc *service) QueryByCourse(ctx context.Context, actor access.Actor, courseID string, activeOnly bool) ([]Enrollment, error) {
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageEnrollments(actor, crs.Access()).Err(); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollmentsByCourse(ctx, courseID, activeOnly)
}

func (svc *service) QueryByStudent(ctx context.Context, actor access.Actor, studentID string) ([]Enrollment, error) {
	if !actor.Authenticated() {
		return nil, access.ErrUnauthenticated
	}
	if actor.ID != studentID && !actor.IsAdmin {
		return nil, access.NewPermissionError("only the student may list their enrollments")
	}
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
}
