package inmemdb

import (
	"context"
	"sort"

	"github.com/chendurkumaran/eduresource/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) checkCodeUniqueness(code string, excluded ...course.Course) error {
	excl := make(map[string]struct{}, len(excluded))
	for _, crs := range excluded {
		excl[crs.ID] = struct{}{}
	}
	for _, crs := range repo.db.courses {
		if _, ok := excl[crs.ID]; ok {
			continue
		}
		if crs.CourseCode == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...course.Course) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.checkCodeUniqueness(code, excluded...)
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// re-check under the write lock; the check and insert must be atomic
	if err := repo.checkCodeUniqueness(crs.CourseCode); err != nil {
		return course.Course{}, err
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, cond course.Condition, pg course.Pagination) (course.Page, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pg.Clean()
	matches := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if cond.Match(*crs) {
			matches = append(matches, *crs)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return course.NewPage(matches, pg), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if err := repo.checkCodeUniqueness(crs.CourseCode, crs); err != nil {
		return course.Course{}, err
	}
	// whole-record replace; readers never see a partial module sequence
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)

		// cascade: assignments, their submissions, and enrollments
		for asgID, asg := range repo.db.assignments {
			if asg.CourseID != id {
				continue
			}
			delete(repo.db.assignments, asgID)
			for subID, sub := range repo.db.submissions {
				if sub.AssignmentID == asgID {
					delete(repo.db.submissions, subID)
				}
			}
		}
		for enrID, enr := range repo.db.enrollments {
			if enr.CourseID == id {
				delete(repo.db.enrollments, enrID)
			}
		}
	}
	return nil
}
