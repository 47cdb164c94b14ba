package submission_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/assignment"
	"github.com/chendurkumaran/eduresource/core/submission"
	uploadsvc "github.com/chendurkumaran/eduresource/services/upload"
	inmemdb "github.com/chendurkumaran/eduresource/storage/database/inmem"
)

var (
	admin        = access.Actor{ID: "adm", IsAdmin: true}
	instructor   = access.Actor{ID: "ins", IsInstructor: true}
	otherInstr   = access.Actor{ID: "ins2", IsInstructor: true}
	student      = access.Actor{ID: "stu", IsStudent: true}
	otherStudent = access.Actor{ID: "stu2", IsStudent: true}
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type submissionFixture struct {
	svc     submission.Service
	asgRepo assignment.Repository
	storage interface {
		core.FileStorage
		Contents(key string) ([]byte, bool)
	}
}

func newSubmissionFixture() *submissionFixture {
	db := inmemdb.NewDB()
	storage := uploadsvc.NewMemoryStorage()
	asgRepo := inmemdb.NewAssignmentRepository(db)
	return &submissionFixture{
		svc:     submission.NewService(inmemdb.NewSubmissionRepository(db), asgRepo, storage, nopLogger{}),
		asgRepo: asgRepo,
		storage: storage,
	}
}

// seedAssignment inserts an assignment directly, bypassing the assignment
// service and its notification fan-out.
func (f *submissionFixture) seedAssignment(t *testing.T, mutate func(*assignment.Assignment)) assignment.Assignment {
	t.Helper()
	now := time.Now().UTC()
	asg := assignment.Assignment{
		ID:           uuid.New().String(),
		CourseID:     "crs",
		InstructorID: instructor.ID,
		Title:        "Problem Set 1",
		Type:         assignment.TypeHomework,
		TotalPoints:  100,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mutate != nil {
		mutate(&asg)
	}
	asg, err := f.asgRepo.CreateAssignment(context.Background(), asg)
	require.NoError(t, err)
	return asg
}

func TestSubmissionServiceCreate(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil)

	t.Run("requires authentication", func(t *testing.T) {
		_, err := f.svc.Create(ctx, access.Anonymous, submission.NewSubmission{AssignmentID: asg.ID})
		assert.Equal(t, access.ErrUnauthenticated, err)
	})

	t.Run("only students submit", func(t *testing.T) {
		_, err := f.svc.Create(ctx, instructor, submission.NewSubmission{AssignmentID: asg.ID})
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("student submits", func(t *testing.T) {
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{
			AssignmentID:   asg.ID,
			SubmissionText: "my answers",
		})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusSubmitted, sub.Status)
		assert.Equal(t, student.ID, sub.StudentID)
		assert.False(t, sub.IsLate)
	})

	t.Run("second attempt conflicts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
		assert.True(t, core.IsConflict(err))
	})

	t.Run("draft status", func(t *testing.T) {
		sub, err := f.svc.Create(ctx, otherStudent, submission.NewSubmission{AssignmentID: asg.ID, AsDraft: true})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusDraft, sub.Status)
	})

	t.Run("unpublished assignment stays hidden", func(t *testing.T) {
		hidden := f.seedAssignment(t, func(a *assignment.Assignment) { a.IsPublished = false })
		_, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: hidden.ID})
		assert.Equal(t, assignment.ErrNotFound, err)
	})

	t.Run("lateness fixed at creation", func(t *testing.T) {
		late := f.seedAssignment(t, func(a *assignment.Assignment) {
			a.DueDate = null.TimeFrom(time.Now().UTC().Add(-time.Hour))
			a.AllowLateSubmission = true
		})
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: late.ID})
		require.NoError(t, err)
		assert.True(t, sub.IsLate)
	})
}

func TestSubmissionServiceGet(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil)
	sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)

	for _, actor := range []access.Actor{student, instructor, admin} {
		got, err := f.svc.Get(ctx, actor, sub.ID)
		require.NoError(t, err, "actor %s", actor.ID)
		assert.Equal(t, sub.ID, got.ID)
	}
	for _, actor := range []access.Actor{otherStudent, otherInstr} {
		_, err := f.svc.Get(ctx, actor, sub.ID)
		assert.True(t, access.IsPermissionDenied(err), "actor %s", actor.ID)
	}
	_, err = f.svc.Get(ctx, access.Anonymous, sub.ID)
	assert.Equal(t, access.ErrUnauthenticated, err)
}

func TestSubmissionServiceGetOwn(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil)
	sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)

	got, err := f.svc.GetOwn(ctx, student, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = f.svc.GetOwn(ctx, otherStudent, asg.ID)
	assert.Equal(t, submission.ErrNotFound, err)
}

func TestSubmissionServiceQueryByAssignment(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil)
	_, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, otherStudent, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)

	subs, err := f.svc.QueryByAssignment(ctx, instructor, asg.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	// students never see the class list, not even their own row through it
	_, err = f.svc.QueryByAssignment(ctx, student, asg.ID)
	assert.True(t, access.IsPermissionDenied(err))
}

func TestSubmissionServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()

	text := func(s string) *string { return &s }

	t.Run("draft submits on first revision", func(t *testing.T) {
		asg := f.seedAssignment(t, nil)
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID, AsDraft: true})
		require.NoError(t, err)

		got, err := f.svc.Update(ctx, student, sub.ID, submission.UpdateSubmission{SubmissionText: text("v1")})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusSubmitted, got.Status)
		assert.Equal(t, "v1", got.SubmissionText)

		got, err = f.svc.Update(ctx, student, sub.ID, submission.UpdateSubmission{SubmissionText: text("v2")})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusResubmitted, got.Status)
	})

	t.Run("closed assignment rejects revisions", func(t *testing.T) {
		asg := f.seedAssignment(t, func(a *assignment.Assignment) {
			a.DueDate = null.TimeFrom(time.Now().UTC().Add(time.Minute))
		})
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
		require.NoError(t, err)

		asg.DueDate = null.TimeFrom(time.Now().UTC().Add(-time.Minute))
		_, err = f.asgRepo.UpdateAssignment(ctx, asg)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, student, sub.ID, submission.UpdateSubmission{SubmissionText: text("too late")})
		assert.True(t, core.IsPreconditionFailed(err))
	})

	t.Run("late revisions marked late when allowed", func(t *testing.T) {
		asg := f.seedAssignment(t, func(a *assignment.Assignment) {
			a.DueDate = null.TimeFrom(time.Now().UTC().Add(time.Minute))
			a.AllowLateSubmission = true
		})
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
		require.NoError(t, err)
		require.False(t, sub.IsLate)

		asg.DueDate = null.TimeFrom(time.Now().UTC().Add(-time.Minute))
		_, err = f.asgRepo.UpdateAssignment(ctx, asg)
		require.NoError(t, err)

		got, err := f.svc.Update(ctx, student, sub.ID, submission.UpdateSubmission{SubmissionText: text("late but fine")})
		require.NoError(t, err)
		assert.True(t, got.IsLate)
	})

	t.Run("only the owner revises", func(t *testing.T) {
		asg := f.seedAssignment(t, nil)
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, otherStudent, sub.ID, submission.UpdateSubmission{SubmissionText: text("x")})
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("graded work is frozen", func(t *testing.T) {
		asg := f.seedAssignment(t, nil)
		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
		require.NoError(t, err)
		_, err = f.svc.Grade(ctx, instructor, sub.ID, submission.GradeInput{Points: 80})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, student, sub.ID, submission.UpdateSubmission{SubmissionText: text("appeal")})
		assert.True(t, access.IsPermissionDenied(err))
	})
}

func TestSubmissionServiceGrade(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil) // 100 points
	sub, err := f.svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)

	t.Run("students may not grade", func(t *testing.T) {
		_, err := f.svc.Grade(ctx, student, sub.ID, submission.GradeInput{Points: 100})
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("points outside range rejected, never clamped", func(t *testing.T) {
		_, err := f.svc.Grade(ctx, instructor, sub.ID, submission.GradeInput{Points: 101})
		require.True(t, core.IsValidationError(err))
		assert.True(t, strings.Contains(err.(*core.ValidationError).Fields[0].Error, "between 0 and 100"))

		_, err = f.svc.Grade(ctx, instructor, sub.ID, submission.GradeInput{Points: -1})
		assert.True(t, core.IsValidationError(err))

		got, err := f.svc.Get(ctx, instructor, sub.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Grade)
	})

	t.Run("grade derives percentage and letter", func(t *testing.T) {
		got, err := f.svc.Grade(ctx, instructor, sub.ID, submission.GradeInput{
			Points:   85,
			Feedback: "solid work",
			RubricScores: []submission.RubricScore{
				{Criterion: "correctness", Points: 60},
				{Criterion: "style", Points: 25},
			},
		})
		require.NoError(t, err)
		require.NotNil(t, got.Grade)
		assert.Equal(t, 85, got.Grade.Points)
		assert.InDelta(t, 85, got.Grade.Percentage, 1e-9)
		assert.Equal(t, "B", got.Grade.LetterGrade)
		assert.Equal(t, instructor.ID, got.Grade.GradedBy)
		assert.Equal(t, submission.StatusGraded, got.Status)
		assert.Equal(t, "solid work", got.Feedback)
		assert.Len(t, got.RubricScores, 2)
	})

	t.Run("regrade overwrites", func(t *testing.T) {
		got, err := f.svc.Grade(ctx, admin, sub.ID, submission.GradeInput{Points: 93})
		require.NoError(t, err)
		assert.Equal(t, 93, got.Grade.Points)
		assert.Equal(t, "A", got.Grade.LetterGrade)
		assert.Equal(t, admin.ID, got.Grade.GradedBy)
	})
}

func TestSubmissionServiceDelete(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	asg := f.seedAssignment(t, nil)

	t.Run("owner deletes ungraded work and attachments follow", func(t *testing.T) {
		_, err := f.storage.Save(ctx, "subs/notes.pdf", strings.NewReader("pdf bytes"), "application/pdf")
		require.NoError(t, err)

		sub, err := f.svc.Create(ctx, student, submission.NewSubmission{
			AssignmentID: asg.ID,
			Attachments:  []string{"subs/notes.pdf"},
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, student, sub.ID))
		_, err = f.svc.Get(ctx, student, sub.ID)
		assert.Equal(t, submission.ErrNotFound, err)

		// cleanup is asynchronous
		assert.Eventually(t, func() bool {
			_, ok := f.storage.Contents("subs/notes.pdf")
			return !ok
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("graded work only deletable by staff", func(t *testing.T) {
		sub, err := f.svc.Create(ctx, otherStudent, submission.NewSubmission{AssignmentID: asg.ID})
		require.NoError(t, err)
		_, err = f.svc.Grade(ctx, instructor, sub.ID, submission.GradeInput{Points: 50})
		require.NoError(t, err)

		assert.True(t, access.IsPermissionDenied(f.svc.Delete(ctx, otherStudent, sub.ID)))
		assert.NoError(t, f.svc.Delete(ctx, instructor, sub.ID))
	})
}

// staleCheckRepo simulates a concurrent submit winning between the advisory
// uniqueness check and the insert: the check always passes, the store-level
// re-check fires the sentinel.
type staleCheckRepo struct {
	submission.Repository
}

func (staleCheckRepo) CheckSubmissionUniqueness(context.Context, string, string) error {
	return nil
}

func TestSubmissionServiceCreateRaceLoserConflicts(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.NewDB()
	asgRepo := inmemdb.NewAssignmentRepository(db)
	repo := staleCheckRepo{Repository: inmemdb.NewSubmissionRepository(db)}
	svc := submission.NewService(repo, asgRepo, uploadsvc.NewMemoryStorage(), nopLogger{})

	now := time.Now().UTC()
	asg, err := asgRepo.CreateAssignment(ctx, assignment.Assignment{
		ID:           uuid.New().String(),
		CourseID:     "crs",
		InstructorID: instructor.ID,
		Title:        "Problem Set 1",
		Type:         assignment.TypeHomework,
		TotalPoints:  100,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, student, submission.NewSubmission{AssignmentID: asg.ID})
	assert.True(t, core.IsConflict(err))
}
