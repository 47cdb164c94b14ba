package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
	"github.com/chendurkumaran/eduresource/core/course"
	inmemdb "github.com/chendurkumaran/eduresource/storage/database/inmem"
)

var (
	admin      = access.Actor{ID: "adm", IsAdmin: true}
	instructor = access.Actor{ID: "ins", IsInstructor: true}
	otherInstr = access.Actor{ID: "ins2", IsInstructor: true}
	student    = access.Actor{ID: "stu", IsStudent: true}
)

func newCourseSvc() course.Service {
	return course.NewService(inmemdb.NewCourseRepository(inmemdb.NewDB()))
}

func mustCreateCourse(t *testing.T, svc course.Service, actor access.Actor, code string) course.Course {
	t.Helper()
	crs, err := svc.Create(context.Background(), actor, course.NewCourse{
		Title:      "Operating Systems",
		CourseCode: code,
		Category:   "CS",
		Level:      course.LevelThirdYear,
		Credits:    3,
	})
	require.NoError(t, err)
	return crs
}

func TestCourseServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()

	t.Run("instructor becomes owner", func(t *testing.T) {
		crs := mustCreateCourse(t, svc, instructor, "CS301")
		assert.Equal(t, instructor.ID, crs.InstructorID)
		assert.True(t, crs.IsActive)
		assert.False(t, crs.IsApproved)
		assert.NotEmpty(t, crs.ID)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, instructor, course.NewCourse{
			Title:      "Operating Systems II",
			CourseCode: "CS301",
			Category:   "CS",
			Level:      course.LevelThirdYear,
		})
		assert.True(t, core.IsConflict(err))
	})

	t.Run("students may not create", func(t *testing.T) {
		_, err := svc.Create(ctx, student, course.NewCourse{
			Title:      "Nope",
			CourseCode: "CS999",
			Category:   "CS",
			Level:      course.LevelFirstYear,
		})
		assert.True(t, access.IsPermissionDenied(err))
	})
}

func TestCourseServiceGet(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301") // active but unapproved

	t.Run("owner sees unapproved", func(t *testing.T) {
		got, err := svc.Get(ctx, instructor, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, crs.ID, got.ID)
	})

	t.Run("stranger denied unapproved", func(t *testing.T) {
		_, err := svc.Get(ctx, student, crs.ID)
		assert.True(t, access.IsPermissionDenied(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Get(ctx, instructor, "missing")
		assert.Equal(t, course.ErrNotFound, err)
	})
}

func TestCourseServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301")
	mustCreateCourse(t, svc, instructor, "CS302")

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		title := "Advanced Operating Systems"
		got, err := svc.Update(ctx, instructor, crs.ID, course.UpdateCourse{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		assert.Equal(t, "CS301", got.CourseCode)
		assert.Equal(t, 3, got.Credits)
	})

	t.Run("code change re-checks uniqueness", func(t *testing.T) {
		code := "CS302"
		_, err := svc.Update(ctx, instructor, crs.ID, course.UpdateCourse{CourseCode: &code})
		assert.True(t, core.IsConflict(err))
	})

	t.Run("keeping own code is not a conflict", func(t *testing.T) {
		code := "CS301"
		_, err := svc.Update(ctx, instructor, crs.ID, course.UpdateCourse{CourseCode: &code})
		assert.NoError(t, err)
	})

	t.Run("non-owner denied", func(t *testing.T) {
		title := "Hijacked"
		_, err := svc.Update(ctx, otherInstr, crs.ID, course.UpdateCourse{Title: &title})
		assert.True(t, access.IsPermissionDenied(err))

		// admins may not edit someone else's course either
		_, err = svc.Update(ctx, admin, crs.ID, course.UpdateCourse{Title: &title})
		assert.True(t, access.IsPermissionDenied(err))
	})
}

func TestCourseServiceModules(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301")

	crs, err := svc.AddModule(ctx, instructor, crs.ID, course.NewModule{Title: "Processes"})
	require.NoError(t, err)
	crs, err = svc.AddModule(ctx, instructor, crs.ID, course.NewModule{Title: "Scheduling"})
	require.NoError(t, err)
	crs, err = svc.AddModule(ctx, instructor, crs.ID, course.NewModule{Title: "Memory"})
	require.NoError(t, err)
	require.Len(t, crs.Modules, 3)

	m1, m2, m3 := crs.Modules[0].ID, crs.Modules[1].ID, crs.Modules[2].ID

	t.Run("update module", func(t *testing.T) {
		title := "CPU Scheduling"
		got, err := svc.UpdateModule(ctx, instructor, crs.ID, m2, course.UpdateModule{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Modules[1].Title)
	})

	t.Run("update unknown module", func(t *testing.T) {
		title := "x"
		_, err := svc.UpdateModule(ctx, instructor, crs.ID, "missing", course.UpdateModule{Title: &title})
		assert.Equal(t, course.ErrModuleNotFound, err)
	})

	t.Run("reorder must be a full permutation", func(t *testing.T) {
		_, err := svc.ReorderModules(ctx, instructor, crs.ID, []string{m3, m1})
		assert.True(t, core.IsValidationError(err))

		_, err = svc.ReorderModules(ctx, instructor, crs.ID, []string{m3, m1, "missing"})
		assert.True(t, core.IsValidationError(err))

		_, err = svc.ReorderModules(ctx, instructor, crs.ID, []string{m3, m1, m1})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("reorder", func(t *testing.T) {
		got, err := svc.ReorderModules(ctx, instructor, crs.ID, []string{m3, m1, m2})
		require.NoError(t, err)
		assert.Equal(t, []string{m3, m1, m2}, []string{got.Modules[0].ID, got.Modules[1].ID, got.Modules[2].ID})
	})

	t.Run("remove module", func(t *testing.T) {
		got, err := svc.RemoveModule(ctx, instructor, crs.ID, m1)
		require.NoError(t, err)
		assert.Len(t, got.Modules, 2)
		for _, mod := range got.Modules {
			assert.NotEqual(t, m1, mod.ID)
		}
	})
}

func TestCourseServiceMaterials(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301")
	crs, err := svc.AddModule(ctx, instructor, crs.ID, course.NewModule{Title: "Processes"})
	require.NoError(t, err)
	modID := crs.Modules[0].ID

	syllabus := course.NewMaterial{Title: "Syllabus", Type: course.MaterialPDF, URL: "https://cdn.example.com/syllabus.pdf"}
	slides := course.NewMaterial{Title: "Slides", Type: course.MaterialPDF, URL: "https://cdn.example.com/slides.pdf"}

	t.Run("course-level sequence", func(t *testing.T) {
		got, err := svc.AddMaterial(ctx, instructor, crs.ID, "", syllabus)
		require.NoError(t, err)
		require.Len(t, got.Materials, 1)

		title := "Course Syllabus"
		got, err = svc.UpdateMaterial(ctx, instructor, crs.ID, "", 0, course.UpdateMaterial{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Materials[0].Title)

		got, err = svc.RemoveMaterial(ctx, instructor, crs.ID, "", 0)
		require.NoError(t, err)
		assert.Empty(t, got.Materials)
	})

	t.Run("module sequence", func(t *testing.T) {
		got, err := svc.AddMaterial(ctx, instructor, crs.ID, modID, slides)
		require.NoError(t, err)
		require.Len(t, got.Modules[0].Materials, 1)
		assert.Empty(t, got.Materials)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := svc.RemoveMaterial(ctx, instructor, crs.ID, modID, 5)
		assert.Equal(t, course.ErrMaterialNotFound, err)

		_, err = svc.UpdateMaterial(ctx, instructor, crs.ID, "", -1, course.UpdateMaterial{})
		assert.Equal(t, course.ErrMaterialNotFound, err)
	})

	t.Run("unknown module", func(t *testing.T) {
		_, err := svc.AddMaterial(ctx, instructor, crs.ID, "missing", slides)
		assert.Equal(t, course.ErrModuleNotFound, err)
	})
}

func TestCourseServiceAssignmentRefs(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301")
	crs, err := svc.AddModule(ctx, instructor, crs.ID, course.NewModule{Title: "Processes"})
	require.NoError(t, err)
	modID := crs.Modules[0].ID

	got, err := svc.AddAssignmentRef(ctx, instructor, crs.ID, modID, "asg1")
	require.NoError(t, err)
	assert.Equal(t, []string{"asg1"}, got.Modules[0].AssignmentIDs)

	// adding the same ref twice is a no-op
	got, err = svc.AddAssignmentRef(ctx, instructor, crs.ID, modID, "asg1")
	require.NoError(t, err)
	assert.Equal(t, []string{"asg1"}, got.Modules[0].AssignmentIDs)

	got, err = svc.RemoveAssignmentRef(ctx, instructor, crs.ID, modID, "asg1")
	require.NoError(t, err)
	assert.Empty(t, got.Modules[0].AssignmentIDs)
}

func TestCourseServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc := newCourseSvc()
	crs := mustCreateCourse(t, svc, instructor, "CS301")

	assert.True(t, access.IsPermissionDenied(svc.Delete(ctx, otherInstr, crs.ID)))

	require.NoError(t, svc.Delete(ctx, instructor, crs.ID))
	_, err := svc.Get(ctx, instructor, crs.ID)
	assert.Equal(t, course.ErrNotFound, err)
}

// staleCheckRepo simulates a concurrent writer winning between the advisory
// uniqueness check and the insert: the check always passes, the store-level
// re-check fires the sentinel.
type staleCheckRepo struct {
	course.Repository
}

func (staleCheckRepo) CheckCodeUniqueness(context.Context, string, ...course.Course) error {
	return nil
}

func TestCourseServiceCreateRaceLoserConflicts(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewCourseRepository(inmemdb.NewDB())
	svc := course.NewService(staleCheckRepo{Repository: repo})

	crs := mustCreateCourse(t, svc, instructor, "CS301")

	_, err := svc.Create(ctx, instructor, course.NewCourse{
		Title:      "Operating Systems II",
		CourseCode: "CS301",
		Category:   "CS",
		Level:      course.LevelThirdYear,
	})
	assert.True(t, core.IsConflict(err))

	// same race on a code change
	other := mustCreateCourse(t, svc, instructor, "CS302")
	code := "CS301"
	_, err = svc.Update(ctx, instructor, other.ID, course.UpdateCourse{CourseCode: &code})
	assert.True(t, core.IsConflict(err))

	got, err := svc.Get(ctx, instructor, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS301", got.CourseCode)
}
