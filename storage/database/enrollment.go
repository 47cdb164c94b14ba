package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/chendurkumaran/eduresource/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	StudentID  string    `db:"student_id"`
	Status     string    `db:"status"`
	EnrolledAt null.Time `db:"enrolled_at"`
	UpdatedAt  null.Time `db:"updated_at"`
}

func (repo enrollmentRepository) row(enr enrollment.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:         enr.ID,
		CourseID:   enr.CourseID,
		StudentID:  enr.StudentID,
		Status:     string(enr.Status),
		EnrolledAt: null.TimeFrom(enr.EnrolledAt.UTC()),
		UpdatedAt:  null.TimeFrom(enr.UpdatedAt.UTC()),
	}
}

func (repo enrollmentRepository) unrow(row enrollmentRow) enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         row.ID,
		CourseID:   row.CourseID,
		StudentID:  row.StudentID,
		Status:     enrollment.Status(row.Status),
		EnrolledAt: row.EnrolledAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo enrollmentRepository) CheckEnrollmentUniqueness(ctx context.Context, courseID, studentID string) error {
	var count int
	query := `SELECT COUNT(*) FROM enrollment WHERE course_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &count, query, courseID, studentID); err != nil {
		return errors.Wrap(err, "checking enrollment uniqueness")
	}
	if count > 0 {
		return enrollment.ErrExists
	}
	return nil
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	query := `
INSERT INTO enrollment (id, course_id, student_id, status, enrolled_at, updated_at)
VALUES (:id, :course_id, :student_id, :status, :enrolled_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.row(enr)); err != nil {
		if isUniqueViolation(err, "enrollment_student_key") {
			return enrollment.Enrollment{}, enrollment.ErrExists
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, courseID, studentID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	query := `SELECT * FROM enrollment WHERE course_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, courseID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return repo.unrow(row), nil
}

func (repo enrollmentRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string, activeOnly bool) ([]enrollment.Enrollment, error) {
	query := `SELECT * FROM enrollment WHERE course_id = $1`
	args := []interface{}{courseID}
	if activeOnly {
		query += ` AND status = $2`
		args = append(args, string(enrollment.StatusActive))
	}
	query += ` ORDER BY enrolled_at`

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, repo.unrow(row))
	}
	return enrs, nil
}

func (repo enrollmentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	query := `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at`
	if err := repo.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, repo.unrow(row))
	}
	return enrs, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	query := `UPDATE enrollment SET status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, repo.row(enr))
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enr, nil
}
