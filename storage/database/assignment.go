package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/chendurkumaran/eduresource/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID                  string         `db:"id"`
	CourseID            string         `db:"course_id"`
	InstructorID        string         `db:"instructor_id"`
	Title               string         `db:"title"`
	Description         string         `db:"description"`
	Type                string         `db:"type"`
	TotalPoints         int            `db:"total_points"`
	DueDate             null.Time      `db:"due_date"`
	IsPublished         bool           `db:"is_published"`
	AllowLateSubmission bool           `db:"allow_late_submission"`
	LatePenalty         int            `db:"late_penalty"`
	Attachments         types.JSONText `db:"attachments"`
	Solution            string         `db:"solution"`
	IsSolutionVisible   bool           `db:"is_solution_visible"`
	CreatedAt           null.Time      `db:"created_at"`
	UpdatedAt           null.Time      `db:"updated_at"`
}

func (repo assignmentRepository) row(asg assignment.Assignment) (assignmentRow, error) {
	attachments, err := json.Marshal(asg.Attachments)
	if err != nil {
		return assignmentRow{}, errors.Wrap(err, "encoding attachments")
	}
	return assignmentRow{
		ID:                  asg.ID,
		CourseID:            asg.CourseID,
		InstructorID:        asg.InstructorID,
		Title:               asg.Title,
		Description:         asg.Description,
		Type:                string(asg.Type),
		TotalPoints:         asg.TotalPoints,
		DueDate:             asg.DueDate,
		IsPublished:         asg.IsPublished,
		AllowLateSubmission: asg.AllowLateSubmission,
		LatePenalty:         asg.LatePenalty,
		Attachments:         attachments,
		Solution:            asg.Solution,
		IsSolutionVisible:   asg.IsSolutionVisible,
		CreatedAt:           null.TimeFrom(asg.CreatedAt.UTC()),
		UpdatedAt:           null.TimeFrom(asg.UpdatedAt.UTC()),
	}, nil
}

func (repo assignmentRepository) unrow(row assignmentRow) (assignment.Assignment, error) {
	asg := assignment.Assignment{
		ID:                  row.ID,
		CourseID:            row.CourseID,
		InstructorID:        row.InstructorID,
		Title:               row.Title,
		Description:         row.Description,
		Type:                assignment.Type(row.Type),
		TotalPoints:         row.TotalPoints,
		DueDate:             row.DueDate,
		IsPublished:         row.IsPublished,
		AllowLateSubmission: row.AllowLateSubmission,
		LatePenalty:         row.LatePenalty,
		Solution:            row.Solution,
		IsSolutionVisible:   row.IsSolutionVisible,
		CreatedAt:           row.CreatedAt.Time,
		UpdatedAt:           row.UpdatedAt.Time,
	}
	if err := json.Unmarshal(row.Attachments, &asg.Attachments); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "decoding attachments")
	}
	return asg, nil
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	row, err := repo.row(asg)
	if err != nil {
		return assignment.Assignment{}, err
	}
	query := `
INSERT INTO assignment (id, course_id, instructor_id, title, description, type, total_points, due_date,
                        is_published, allow_late_submission, late_penalty, attachments, solution,
                        is_solution_visible, created_at, updated_at)
VALUES (:id, :course_id, :instructor_id, :title, :description, :type, :total_points, :due_date,
        :is_published, :allow_late_submission, :late_penalty, :attachments, :solution,
        :is_solution_visible, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return repo.unrow(row)
}

func (repo assignmentRepository) QueryAssignmentsByCourse(ctx context.Context, courseID string) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	query := `SELECT * FROM assignment WHERE course_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asg, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	row, err := repo.row(asg)
	if err != nil {
		return assignment.Assignment{}, err
	}
	query := `
UPDATE assignment
SET title = :title, description = :description, type = :type, total_points = :total_points, due_date = :due_date,
    is_published = :is_published, allow_late_submission = :allow_late_submission, late_penalty = :late_penalty,
    attachments = :attachments, solution = :solution, is_solution_visible = :is_solution_visible,
    updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
