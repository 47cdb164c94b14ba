package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrCodeExists       = errors.New("a course with this code already exists")
	ErrModuleNotFound   = errors.New("module not found")
	ErrMaterialNotFound = errors.New("material not found")
)

type (
	Repository interface {
		// CheckCodeUniqueness returns ErrCodeExists when another course already
		// uses the given (normalized) code. The check and a subsequent insert
		// are atomic per code at the store level.
		CheckCodeUniqueness(ctx context.Context, code string, excluded ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses evaluates the condition tree and pages the matches
		// ordered by creation time descending.
		FilterCourses(ctx context.Context, cond Condition, pg Pagination) (Page, error)
		// UpdateCourse replaces the stored record as a single atomic write;
		// readers never observe a partially applied module sequence.
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		// DeleteCoursesByID removes courses and cascades to their assignments,
		// submissions and enrollments.
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error
		Create(ctx context.Context, actor access.Actor, nc NewCourse) (Course, error)
		Get(ctx context.Context, actor access.Actor, id string) (Course, error)
		Catalog(ctx context.Context, actor access.Actor, qf QueryFilter, pg Pagination) (Page, error)
		Update(ctx context.Context, actor access.Actor, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, actor access.Actor, id string) error

		AddModule(ctx context.Context, actor access.Actor, courseID string, nm NewModule) (Course, error)
		UpdateModule(ctx context.Context, actor access.Actor, courseID, moduleID string, um UpdateModule) (Course, error)
		RemoveModule(ctx context.Context, actor access.Actor, courseID, moduleID string) (Course, error)
		ReorderModules(ctx context.Context, actor access.Actor, courseID string, order []string) (Course, error)

		// Material operations address materials by position; moduleID "" targets
		// the course-level sequence.
		AddMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, nm NewMaterial) (Course, error)
		UpdateMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, idx int, um UpdateMaterial) (Course, error)
		RemoveMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, idx int) (Course, error)

		AddAssignmentRef(ctx context.Context, actor access.Actor, courseID, moduleID, assignmentID string) (Course, error)
		RemoveAssignmentRef(ctx context.Context, actor access.Actor, courseID, moduleID, assignmentID string) (Course, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, exclCourses...); err != nil {
		if err == ErrCodeExists {
			return core.NewConflictError(err.Error())
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, actor access.Actor, nc NewCourse) (Course, error) {
	if err := access.CanCreateCourse(actor).Err(); err != nil {
		return Course{}, err
	}
	if err := svc.CheckCodeUniqueness(ctx, nc.CourseCode); err != nil {
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		ID:           uuid.New().String(),
		InstructorID: actor.ID,
		Title:        nc.Title,
		Description:  nc.Description,
		CourseCode:   nc.CourseCode,
		Category:     nc.Category,
		Level:        nc.Level,
		Credits:      nc.Credits,
		MaxStudents:  nc.MaxStudents,
		IsActive:     true,
		IsFree:       nc.IsFree,
		Thumbnail:    nc.Thumbnail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err == ErrCodeExists { // lost the race to a concurrent create
		return Course{}, core.NewConflictError(err.Error())
	}
	return crs, err
}

func (svc *service) Get(ctx context.Context, actor access.Actor, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err := access.CanViewCourse(actor, crs.Access()).Err(); err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *service) Catalog(ctx context.Context, actor access.Actor, qf QueryFilter, pg Pagination) (Page, error) {
	qf.Clean()
	pg.Clean()
	return svc.repo.FilterCourses(ctx, CatalogQuery(actor, qf), pg)
}

func (svc *service) Update(ctx context.Context, actor access.Actor, id string, uc UpdateCourse) (Course, error) {
	return svc.mutate(ctx, actor, id, func(crs *Course) error {
		if uc.CourseCode != nil && *uc.CourseCode != crs.CourseCode {
			if err := svc.CheckCodeUniqueness(ctx, *uc.CourseCode, *crs); err != nil {
				return err
			}
		}
		uc.apply(crs)
		return nil
	})
}

func (svc *service) Delete(ctx context.Context, actor access.Actor, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanMutateCourse(actor, crs.Access()).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteCoursesByID(ctx, id)
}

func (svc *service) AddModule(ctx context.Context, actor access.Actor, courseID string, nm NewModule) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		crs.Modules = append(crs.Modules, Module{
			ID:                   uuid.New().String(),
			Title:                nm.Title,
			Description:          nm.Description,
			Duration:             nm.Duration,
			Content:              nm.Content,
			IsAssignmentBlocking: nm.IsAssignmentBlocking,
		})
		return nil
	})
}

func (svc *service) UpdateModule(ctx context.Context, actor access.Actor, courseID, moduleID string, um UpdateModule) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		_, mod := crs.getModule(moduleID)
		if mod == nil {
			return ErrModuleNotFound
		}
		um.apply(mod)
		return nil
	})
}

func (svc *service) RemoveModule(ctx context.Context, actor access.Actor, courseID, moduleID string) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		idx, mod := crs.getModule(moduleID)
		if mod == nil {
			return ErrModuleNotFound
		}
		crs.Modules = append(crs.Modules[:idx], crs.Modules[idx+1:]...)
		return nil
	})
}

// ReorderModules replaces the whole module sequence in one write. Concurrent
// reorders are last-writer-wins; they are never merged.
func (svc *service) ReorderModules(ctx context.Context, actor access.Actor, courseID string, order []string) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		if len(order) != len(crs.Modules) {
			return core.NewValidationError(nil, core.FieldError{Field: "order", Error: "order must contain every module id exactly once"})
		}
		reordered := make([]Module, 0, len(order))
		for _, id := range order {
			_, mod := crs.getModule(id)
			if mod == nil {
				return core.NewValidationError(nil, core.FieldError{Field: "order", Error: "unknown module id: " + id})
			}
			reordered = append(reordered, *mod)
		}
		// reject duplicates hiding behind a matching length
		seen := make(map[string]struct{}, len(order))
		for _, id := range order {
			if _, dup := seen[id]; dup {
				return core.NewValidationError(nil, core.FieldError{Field: "order", Error: "duplicate module id: " + id})
			}
			seen[id] = struct{}{}
		}
		crs.Modules = reordered
		return nil
	})
}

func (svc *service) AddMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, nm NewMaterial) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		mat := Material{
			Title:       nm.Title,
			Type:        nm.Type,
			URL:         nm.URL,
			Filename:    nm.Filename,
			Description: nm.Description,
			UploadedAt:  time.Now().UTC(),
		}
		if moduleID == "" {
			crs.Materials = append(crs.Materials, mat)
			return nil
		}
		_, mod := crs.getModule(moduleID)
		if mod == nil {
			return ErrModuleNotFound
		}
		mod.Materials = append(mod.Materials, mat)
		return nil
	})
}

func (svc *service) UpdateMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, idx int, um UpdateMaterial) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		mats, err := materialsOf(crs, moduleID)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(*mats) {
			return ErrMaterialNotFound
		}
		um.apply(&(*mats)[idx])
		return nil
	})
}

func (svc *service) RemoveMaterial(ctx context.Context, actor access.Actor, courseID, moduleID string, idx int) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		mats, err := materialsOf(crs, moduleID)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(*mats) {
			return ErrMaterialNotFound
		}
		*mats = append((*mats)[:idx], (*mats)[idx+1:]...)
		return nil
	})
}

func (svc *service) AddAssignmentRef(ctx context.Context, actor access.Actor, courseID, moduleID, assignmentID string) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		_, mod := crs.getModule(moduleID)
		if mod == nil {
			return ErrModuleNotFound
		}
		for _, id := range mod.AssignmentIDs {
			if id == assignmentID {
				return nil // already referenced
			}
		}
		mod.AssignmentIDs = append(mod.AssignmentIDs, assignmentID)
		return nil
	})
}

func (svc *service) RemoveAssignmentRef(ctx context.Context, actor access.Actor, courseID, moduleID, assignmentID string) (Course, error) {
	return svc.mutate(ctx, actor, courseID, func(crs *Course) error {
		_, mod := crs.getModule(moduleID)
		if mod == nil {
			return ErrModuleNotFound
		}
		for i, id := range mod.AssignmentIDs {
			if id == assignmentID {
				mod.AssignmentIDs = append(mod.AssignmentIDs[:i], mod.AssignmentIDs[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// mutate loads the course, checks mutation rights, applies fn and saves the
// record as one atomic replace.
func (svc *service) mutate(ctx context.Context, actor access.Actor, id string, fn func(*Course) error) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err := access.CanMutateCourse(actor, crs.Access()).Err(); err != nil {
		return Course{}, err
	}
	if err := fn(&crs); err != nil {
		return Course{}, err
	}
	crs.UpdatedAt = time.Now().UTC()
	crs, err = svc.repo.UpdateCourse(ctx, crs)
	if err == ErrCodeExists { // lost the race to a concurrent code change
		return Course{}, core.NewConflictError(err.Error())
	}
	return crs, err
}

func materialsOf(crs *Course, moduleID string) (*[]Material, error) {
	if moduleID == "" {
		return &crs.Materials, nil
	}
	_, mod := crs.getModule(moduleID)
	if mod == nil {
		return nil, ErrModuleNotFound
	}
	return &mod.Materials, nil
}
