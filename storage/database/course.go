package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/chendurkumaran/eduresource/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID           string         `db:"id"`
	InstructorID string         `db:"instructor_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	CourseCode   string         `db:"course_code"`
	Category     string         `db:"category"`
	Level        string         `db:"level"`
	Credits      int            `db:"credits"`
	MaxStudents  int            `db:"max_students"`
	IsActive     bool           `db:"is_active"`
	IsApproved   bool           `db:"is_approved"`
	IsFree       bool           `db:"is_free"`
	Thumbnail    string         `db:"thumbnail"`
	Modules      types.JSONText `db:"modules"`
	Materials    types.JSONText `db:"materials"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
}

func (repo courseRepository) row(crs course.Course) (courseRow, error) {
	modules, err := json.Marshal(crs.Modules)
	if err != nil {
		return courseRow{}, errors.Wrap(err, "encoding modules")
	}
	materials, err := json.Marshal(crs.Materials)
	if err != nil {
		return courseRow{}, errors.Wrap(err, "encoding materials")
	}
	return courseRow{
		ID:           crs.ID,
		InstructorID: crs.InstructorID,
		Title:        crs.Title,
		Description:  crs.Description,
		CourseCode:   crs.CourseCode,
		Category:     crs.Category,
		Level:        string(crs.Level),
		Credits:      crs.Credits,
		MaxStudents:  crs.MaxStudents,
		IsActive:     crs.IsActive,
		IsApproved:   crs.IsApproved,
		IsFree:       crs.IsFree,
		Thumbnail:    crs.Thumbnail,
		Modules:      modules,
		Materials:    materials,
		CreatedAt:    null.TimeFrom(crs.CreatedAt.UTC()),
		UpdatedAt:    null.TimeFrom(crs.UpdatedAt.UTC()),
	}, nil
}

func (repo courseRepository) unrow(row courseRow) (course.Course, error) {
	crs := course.Course{
		ID:           row.ID,
		InstructorID: row.InstructorID,
		Title:        row.Title,
		Description:  row.Description,
		CourseCode:   row.CourseCode,
		Category:     row.Category,
		Level:        course.Level(row.Level),
		Credits:      row.Credits,
		MaxStudents:  row.MaxStudents,
		IsActive:     row.IsActive,
		IsApproved:   row.IsApproved,
		IsFree:       row.IsFree,
		Thumbnail:    row.Thumbnail,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
	if err := json.Unmarshal(row.Modules, &crs.Modules); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding modules")
	}
	if err := json.Unmarshal(row.Materials, &crs.Materials); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding materials")
	}
	return crs, nil
}

func (repo courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...course.Course) error {
	query := `SELECT COUNT(*) FROM course WHERE course_code = $1`
	args := []interface{}{code}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, crs := range excluded {
			ids = append(ids, crs.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if count > 0 {
		return course.ErrCodeExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row, err := repo.row(crs)
	if err != nil {
		return course.Course{}, err
	}
	query := `
INSERT INTO course (id, instructor_id, title, description, course_code, category, level, credits, max_students,
                    is_active, is_approved, is_free, thumbnail, modules, materials, created_at, updated_at)
VALUES (:id, :instructor_id, :title, :description, :course_code, :category, :level, :credits, :max_students,
        :is_active, :is_approved, :is_free, :thumbnail, :modules, :materials, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return repo.unrow(row)
}

func (repo courseRepository) FilterCourses(ctx context.Context, cond course.Condition, pg course.Pagination) (course.Page, error) {
	pg.Clean()

	where, args, err := buildCourseWhere(cond, nil)
	if err != nil {
		return course.Page{}, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM course WHERE ` + where
	if err := repo.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return course.Page{}, errors.Wrap(err, "counting courses")
	}

	query := fmt.Sprintf(
		`SELECT * FROM course WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, pg.Limit, pg.Offset())

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return course.Page{}, errors.Wrap(err, "querying courses")
	}

	results := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := repo.unrow(row)
		if err != nil {
			return course.Page{}, err
		}
		results = append(results, crs)
	}
	return course.Page{
		Results:    results,
		TotalCount: total,
		Page:       pg.Page,
		Limit:      pg.Limit,
		HasNext:    pg.Offset()+len(results) < total,
		HasPrev:    pg.Page > 1,
	}, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row, err := repo.row(crs)
	if err != nil {
		return course.Course{}, err
	}
	query := `
UPDATE course
SET title = :title, description = :description, course_code = :course_code, category = :category, level = :level,
    credits = :credits, max_students = :max_students, is_active = :is_active, is_approved = :is_approved,
    is_free = :is_free, thumbnail = :thumbnail, modules = :modules, materials = :materials, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	// assignments, submissions and enrollments cascade at the schema level
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

// searchableFields maps filterable course fields to their columns.
var searchableFields = map[string]string{
	"title":       "title",
	"description": "description",
	"course_code": "course_code",
}

// buildCourseWhere translates a catalog condition tree into a WHERE clause with
// positional placeholders, preserving the tree's AND/OR structure exactly.
func buildCourseWhere(cond course.Condition, args []interface{}) (string, []interface{}, error) {
	switch c := cond.(type) {
	case course.And:
		if len(c) == 0 {
			return "TRUE", args, nil
		}
		return buildCourseJunction(c, " AND ", args)
	case course.Or:
		if len(c) == 0 {
			return "FALSE", args, nil
		}
		return buildCourseJunction(c, " OR ", args)
	case course.ActiveOnly:
		return "is_active", args, nil
	case course.OwnedBy:
		args = append(args, string(c))
		return fmt.Sprintf("instructor_id = $%d", len(args)), args, nil
	case course.CategoryIs:
		args = append(args, string(c))
		return fmt.Sprintf("category = $%d", len(args)), args, nil
	case course.LevelIs:
		args = append(args, string(c))
		return fmt.Sprintf("level = $%d", len(args)), args, nil
	case course.FieldContains:
		col, ok := searchableFields[c.Field]
		if !ok {
			return "", nil, errors.Errorf("unknown search field %q", c.Field)
		}
		args = append(args, escapeLike(c.Term))
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", col, len(args)), args, nil
	default:
		return "", nil, errors.Errorf("unsupported condition %T", cond)
	}
}

func buildCourseJunction(conds []course.Condition, op string, args []interface{}) (string, []interface{}, error) {
	parts := make([]string, 0, len(conds))
	for _, cond := range conds {
		var (
			part string
			err  error
		)
		part, args, err = buildCourseWhere(cond, args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, op) + ")", args, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
