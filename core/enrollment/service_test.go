package enrollment_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/course"
	"github.com/chendurkumaran/eduresource/core/enrollment"
	inmemdb "github.com/chendurkumaran/eduresource/storage/database/inmem"
)

var (
	admin      = access.Actor{ID: "adm", IsAdmin: true}
	instructor = access.Actor{ID: "ins", IsInstructor: true}
	otherInstr = access.Actor{ID: "ins2", IsInstructor: true}
	student    = access.Actor{ID: "stu", IsStudent: true}
)

type enrollmentFixture struct {
	svc     enrollment.Service
	crsRepo course.Repository
}

func newEnrollmentFixture() *enrollmentFixture {
	db := inmemdb.NewDB()
	crsRepo := inmemdb.NewCourseRepository(db)
	return &enrollmentFixture{
		svc:     enrollment.NewService(inmemdb.NewEnrollmentRepository(db), crsRepo),
		crsRepo: crsRepo,
	}
}

func (f *enrollmentFixture) seedCourse(t *testing.T, maxStudents int) course.Course {
	t.Helper()
	now := time.Now().UTC()
	crs, err := f.crsRepo.CreateCourse(context.Background(), course.Course{
		ID:           uuid.New().String(),
		InstructorID: instructor.ID,
		Title:        "Operating Systems",
		CourseCode:   "CS301-" + uuid.New().String()[:8],
		Category:     "CS",
		Level:        course.LevelThirdYear,
		MaxStudents:  maxStudents,
		IsActive:     true,
		IsApproved:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return crs
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	crs := f.seedCourse(t, 0)

	t.Run("requires authentication", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, access.Anonymous, enrollment.NewEnrollment{CourseID: crs.ID})
		assert.Equal(t, access.ErrUnauthenticated, err)
	})

	t.Run("student enrolls", func(t *testing.T) {
		enr, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: crs.ID})
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusActive, enr.Status)
		assert.Equal(t, student.ID, enr.StudentID)
	})

	t.Run("double enrollment conflicts", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: crs.ID})
		assert.True(t, core.IsConflict(err))
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: "missing"})
		assert.Equal(t, course.ErrNotFound, err)
	})
}

func TestEnrollmentServiceCapacity(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	crs := f.seedCourse(t, 2)

	for i := 0; i < 2; i++ {
		actor := access.Actor{ID: fmt.Sprintf("stu%d", i), IsStudent: true}
		_, err := f.svc.Enroll(ctx, actor, enrollment.NewEnrollment{CourseID: crs.ID})
		require.NoError(t, err)
	}

	_, err := f.svc.Enroll(ctx, access.Actor{ID: "stu-over", IsStudent: true}, enrollment.NewEnrollment{CourseID: crs.ID})
	assert.True(t, core.IsPreconditionFailed(err))

	// dropped seats free capacity
	_, err = f.svc.Drop(ctx, access.Actor{ID: "stu0", IsStudent: true}, crs.ID)
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, access.Actor{ID: "stu-over", IsStudent: true}, enrollment.NewEnrollment{CourseID: crs.ID})
	assert.NoError(t, err)
}

func TestEnrollmentServiceDrop(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	crs := f.seedCourse(t, 0)

	_, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: crs.ID})
	require.NoError(t, err)

	enr, err := f.svc.Drop(ctx, student, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusDropped, enr.Status)

	_, err = f.svc.Drop(ctx, access.Actor{ID: "never-enrolled", IsStudent: true}, crs.ID)
	assert.Equal(t, enrollment.ErrNotFound, err)
}

func TestEnrollmentServiceComplete(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	crs := f.seedCourse(t, 0)

	_, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: crs.ID})
	require.NoError(t, err)

	t.Run("students may not complete themselves", func(t *testing.T) {
		_, err := f.svc.Complete(ctx, student, crs.ID, student.ID)
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("other instructors denied", func(t *testing.T) {
		_, err := f.svc.Complete(ctx, otherInstr, crs.ID, student.ID)
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("course instructor completes", func(t *testing.T) {
		enr, err := f.svc.Complete(ctx, instructor, crs.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusCompleted, enr.Status)
	})
}

func TestEnrollmentServiceQueries(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	crs := f.seedCourse(t, 0)

	_, err := f.svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: crs.ID})
	require.NoError(t, err)
	dropped := access.Actor{ID: "stu2", IsStudent: true}
	_, err = f.svc.Enroll(ctx, dropped, enrollment.NewEnrollment{CourseID: crs.ID})
	require.NoError(t, err)
	_, err = f.svc.Drop(ctx, dropped, crs.ID)
	require.NoError(t, err)

	t.Run("roster restricted to staff", func(t *testing.T) {
		_, err := f.svc.QueryByCourse(ctx, student, crs.ID, false)
		assert.True(t, access.IsPermissionDenied(err))

		all, err := f.svc.QueryByCourse(ctx, instructor, crs.ID, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		active, err := f.svc.QueryByCourse(ctx, admin, crs.ID, true)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("students list their own enrollments only", func(t *testing.T) {
		own, err := f.svc.QueryByStudent(ctx, student, student.ID)
		require.NoError(t, err)
		assert.Len(t, own, 1)

		_, err = f.svc.QueryByStudent(ctx, student, dropped.ID)
		assert.True(t, access.IsPermissionDenied(err))

		theirs, err := f.svc.QueryByStudent(ctx, admin, dropped.ID)
		require.NoError(t, err)
		assert.Len(t, theirs, 1)
	})
}
