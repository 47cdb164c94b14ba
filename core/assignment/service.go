package assignment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/course"
	"github.com/chendurkumaran/eduresource/core/enrollment"
	"github.com/chendurkumaran/eduresource/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignmentsByCourse returns the course's assignments ordered by
		// creation time ascending.
		QueryAssignmentsByCourse(ctx context.Context, courseID string) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error
	}

	// CourseGetter is the slice of the course store this service needs.
	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	// EnrollmentLister enumerates a course's enrollments for publish fan-out.
	EnrollmentLister interface {
		QueryEnrollmentsByCourse(ctx context.Context, courseID string, activeOnly bool) ([]enrollment.Enrollment, error)
	}

	// UserGetter resolves enrolled student ids to deliverable addresses.
	UserGetter interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		Create(ctx context.Context, actor access.Actor, na NewAssignment) (Assignment, error)
		Get(ctx context.Context, actor access.Actor, id string) (Assignment, error)
		QueryByCourse(ctx context.Context, actor access.Actor, courseID string) ([]Assignment, error)
		Update(ctx context.Context, actor access.Actor, id string, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, actor access.Actor, id string) error
		// Publish marks the assignment visible to students and notifies every
		// actively-enrolled student. Notification failures never fail the publish.
		Publish(ctx context.Context, actor access.Actor, id string) (Assignment, error)
	}

	service struct {
		repo        Repository
		courses     CourseGetter
		enrollments EnrollmentLister
		users       UserGetter
		mailSvc     core.EmailService
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	courses CourseGetter,
	enrollments EnrollmentLister,
	users UserGetter,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		users:       users,
		mailSvc:     mailSvc,
		logger:      logger,
	}
}

func (svc *service) Create(ctx context.Context, actor access.Actor, na NewAssignment) (Assignment, error) {
	crs, err := svc.courses.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err := access.CanMutateCourse(actor, crs.Access()).Err(); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	asg := Assignment{
		ID:                  uuid.New().String(),
		CourseID:            crs.ID,
		InstructorID:        crs.InstructorID,
		Title:               na.Title,
		Description:         na.Description,
		Type:                na.Type,
		TotalPoints:         na.TotalPoints,
		DueDate:             na.DueDate,
		AllowLateSubmission: na.AllowLateSubmission,
		LatePenalty:         na.LatePenalty,
		Attachments:         na.Attachments,
		Solution:            na.Solution,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) Get(ctx context.Context, actor access.Actor, id string) (Assignment, error) {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, asg.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err := access.CanViewAssignment(actor, asg.Access(), crs.Access()).Err(); err != nil {
		return Assignment{}, err
	}
	return svc.redact(actor, asg), nil
}

func (svc *service) QueryByCourse(ctx context.Context, actor access.Actor, courseID string) ([]Assignment, error) {
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewAssignment(actor, access.Assignment{InstructorID: crs.InstructorID}, crs.Access()).Err(); err != nil {
		return nil, err
	}

	asgs, err := svc.repo.QueryAssignmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// students only see published assignments
	if actor.IsAdmin || actor.ID == crs.InstructorID {
		return asgs, nil
	}
	published := make([]Assignment, 0, len(asgs))
	for _, asg := range asgs {
		if asg.IsPublished {
			published = append(published, svc.redact(actor, asg))
		}
	}
	return published, nil
}

func (svc *service) Update(ctx context.Context, actor access.Actor, id string, ua UpdateAssignment) (Assignment, error) {
	asg, _, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}
	ua.apply(&asg)
	asg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if _, _, err := svc.getOwned(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteAssignmentsByID(ctx, id)
}

func (svc *service) Publish(ctx context.Context, actor access.Actor, id string) (Assignment, error) {
	asg, crs, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}

	asg.IsPublished = true
	asg.UpdatedAt = time.Now().UTC()
	asg, err = svc.repo.UpdateAssignment(ctx, asg)
	if err != nil {
		return Assignment{}, err
	}

	svc.notifyEnrolledStudents(ctx, asg, crs)
	return asg, nil
}

// notifyEnrolledStudents emails every actively-enrolled student about the new
// assignment. Best effort: failures are logged and swallowed.
func (svc *service) notifyEnrolledStudents(ctx context.Context, asg Assignment, crs course.Course) {
	enrs, err := svc.enrollments.QueryEnrollmentsByCourse(ctx, crs.ID, true /* activeOnly */)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("listing enrollments for assignment notification: %v", err), err)
		return
	}

	messages := make([]*core.EmailMessage, 0, len(enrs))
	for _, enr := range enrs {
		student, err := svc.users.GetUserByID(ctx, enr.StudentID)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("resolving enrolled student %s: %v", enr.StudentID, err), err)
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:      []mail.Address{{Name: student.Name, Address: student.Email}},
			Subject: fmt.Sprintf("New assignment in %s: %s", crs.Title, asg.Title),
			BodyStr: fmt.Sprintf(
				"A new assignment %q has been published in %s. See %s/courses/%s/assignments/%s",
				asg.Title, crs.Title, core.Conf.FrontendBaseURL, crs.ID, asg.ID,
			),
		})
	}
	svc.mailSvc.SendMessages(messages...)
}

func (svc *service) getOwned(ctx context.Context, actor access.Actor, id string) (Assignment, course.Course, error) {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, course.Course{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, asg.CourseID)
	if err != nil {
		return Assignment{}, course.Course{}, err
	}
	if err := access.CanMutateCourse(actor, crs.Access()).Err(); err != nil {
		return Assignment{}, course.Course{}, err
	}
	return asg, crs, nil
}

// redact hides the solution from actors it is not meant for.
func (svc *service) redact(actor access.Actor, asg Assignment) Assignment {
	if actor.IsAdmin || actor.ID == asg.InstructorID {
		return asg
	}
	if !asg.IsSolutionVisible {
		asg.Solution = ""
	}
	return asg
}
