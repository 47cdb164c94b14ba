// Package access centralizes every authorization decision in the system.
//
// Each predicate is a pure function over an (Actor, resource) pair returning a
// Decision. There is no blanket admin bypass anywhere else in the codebase:
// whenever admins are allowed through, the predicate itself says so.
// The default is always Deny; callers must never treat an unmatched case as Allow.
package access

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrUnauthenticated is returned when a predicate requires an identity and none is present.
var ErrUnauthenticated = errors.New("authentication required")

// PermissionError is returned when an authenticated actor is denied.
type PermissionError struct {
	reason string
}

func (err *PermissionError) Error() string { return err.reason }

func NewPermissionError(reason string) error {
	return &PermissionError{reason: reason}
}

func IsPermissionDenied(err error) bool {
	_, ok := pkgerrors.Cause(err).(*PermissionError)
	return ok
}

// Actor is the identity a request acts under. A zero-ID Actor is anonymous.
type Actor struct {
	ID           string
	IsAdmin      bool
	IsInstructor bool
	IsStudent    bool
}

// Anonymous is the identity of unauthenticated requests.
var Anonymous = Actor{}

func (a Actor) Authenticated() bool { return a.ID != "" }

// Resource views. These carry only the fields the predicates read, so that this
// package stays a leaf and every domain package can depend on it.
type (
	Course struct {
		InstructorID string
		IsActive     bool
		IsApproved   bool
		IsFree       bool
	}

	Assignment struct {
		InstructorID string
	}

	Submission struct {
		StudentID string
		Graded    bool
	}
)

// Decision is the outcome of a predicate: Allow, or Deny with a reason.
type Decision struct {
	allowed         bool
	reason          string
	unauthenticated bool
}

var allow = Decision{allowed: true}

func deny(reason string) Decision {
	return Decision{reason: reason}
}

func denyUnauthenticated() Decision {
	return Decision{reason: "authentication required", unauthenticated: true}
}

func (d Decision) Allowed() bool  { return d.allowed }
func (d Decision) Reason() string { return d.reason }

// Err returns nil when allowed, ErrUnauthenticated when identity is missing,
// and a *PermissionError otherwise.
func (d Decision) Err() error {
	if d.allowed {
		return nil
	}
	if d.unauthenticated {
		return ErrUnauthenticated
	}
	return &PermissionError{reason: d.reason}
}

// CanCreateCourse allows instructors and admins to add courses to the catalog.
func CanCreateCourse(actor Actor) Decision {
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	if actor.IsInstructor || actor.IsAdmin {
		return allow
	}
	return deny("only instructors may create courses")
}

// CanViewCourse allows anyone to see an active & approved course,
// and the owning instructor or an admin to see it regardless.
func CanViewCourse(actor Actor, crs Course) Decision {
	if crs.IsActive && crs.IsApproved {
		return allow
	}
	if actor.Authenticated() {
		if actor.ID == crs.InstructorID {
			return allow
		}
		if actor.IsAdmin {
			return allow
		}
	}
	return deny("course not available")
}

// CanMutateCourse allows only the owning instructor.
// Note: no admin override for now; if ops ever needs one it belongs here,
// not at the call sites.
func CanMutateCourse(actor Actor, crs Course) Decision {
	if actor.Authenticated() && actor.ID == crs.InstructorID {
		return allow
	}
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	return deny("only the course instructor may modify it")
}

// CanViewAssignment allows anyone on free courses; otherwise any authenticated
// admin, the owning instructor, or any student.
// Enrollment in the course is deliberately not checked here.
func CanViewAssignment(actor Actor, _ Assignment, crs Course) Decision {
	if crs.IsFree {
		return allow
	}
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	if actor.IsAdmin || actor.ID == crs.InstructorID || actor.IsStudent {
		return allow
	}
	return deny("assignment not available")
}

// CanManageEnrollments allows the course's instructor or an admin to inspect
// and update the course roster.
func CanManageEnrollments(actor Actor, crs Course) Decision {
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	if actor.IsAdmin || actor.ID == crs.InstructorID {
		return allow
	}
	return deny("only the course instructor may manage enrollments")
}

// CanGradeSubmission allows the assignment's instructor or an admin.
func CanGradeSubmission(actor Actor, _ Submission, asg Assignment) Decision {
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	if actor.IsAdmin || actor.ID == asg.InstructorID {
		return allow
	}
	return deny("only the assignment instructor may grade submissions")
}

// CanMutateSubmission allows the owning student while the work is not graded yet.
func CanMutateSubmission(actor Actor, sub Submission) Decision {
	if !actor.Authenticated() {
		return denyUnauthenticated()
	}
	if actor.ID != sub.StudentID {
		return deny("only the submission owner may modify it")
	}
	if sub.Graded {
		return deny("submission has been graded and is read-only")
	}
	return allow
}
