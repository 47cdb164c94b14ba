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

	"github.com/chendurkumaran/eduresource/core/submission"
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

type submissionRow struct {
	ID              string         `db:"id"`
	AssignmentID    string         `db:"assignment_id"`
	StudentID       string         `db:"student_id"`
	SubmissionText  string         `db:"submission_text"`
	Attachments     types.JSONText `db:"attachments"`
	IsLate          bool           `db:"is_late"`
	Status          string         `db:"status"`
	SubmittedAt     null.Time      `db:"submitted_at"`
	Feedback        string         `db:"feedback"`
	RubricScores    types.JSONText `db:"rubric_scores"`
	GradePoints     null.Int       `db:"grade_points"`
	GradePercentage null.Float64   `db:"grade_percentage"`
	LetterGrade     null.String    `db:"letter_grade"`
	GradedAt        null.Time      `db:"graded_at"`
	GradedBy        null.String    `db:"graded_by"`
	CreatedAt       null.Time      `db:"created_at"`
	UpdatedAt       null.Time      `db:"updated_at"`
}

func (repo submissionRepository) row(sub submission.Submission) (submissionRow, error) {
	attachments, err := json.Marshal(sub.Attachments)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding attachments")
	}
	scores, err := json.Marshal(sub.RubricScores)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding rubric scores")
	}
	row := submissionRow{
		ID:             sub.ID,
		AssignmentID:   sub.AssignmentID,
		StudentID:      sub.StudentID,
		SubmissionText: sub.SubmissionText,
		Attachments:    attachments,
		IsLate:         sub.IsLate,
		Status:         string(sub.Status),
		SubmittedAt:    null.TimeFrom(sub.SubmittedAt.UTC()),
		Feedback:       sub.Feedback,
		RubricScores:   scores,
		CreatedAt:      null.TimeFrom(sub.CreatedAt.UTC()),
		UpdatedAt:      null.TimeFrom(sub.UpdatedAt.UTC()),
	}
	if g := sub.Grade; g != nil {
		row.GradePoints = null.IntFrom(g.Points)
		row.GradePercentage = null.Float64From(g.Percentage)
		row.LetterGrade = null.StringFrom(g.LetterGrade)
		row.GradedAt = null.TimeFrom(g.GradedAt.UTC())
		row.GradedBy = null.StringFrom(g.GradedBy)
	}
	return row, nil
}

func (repo submissionRepository) unrow(row submissionRow) (submission.Submission, error) {
	sub := submission.Submission{
		ID:             row.ID,
		AssignmentID:   row.AssignmentID,
		StudentID:      row.StudentID,
		SubmissionText: row.SubmissionText,
		IsLate:         row.IsLate,
		Status:         submission.Status(row.Status),
		SubmittedAt:    row.SubmittedAt.Time,
		Feedback:       row.Feedback,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
	if err := json.Unmarshal(row.Attachments, &sub.Attachments); err != nil {
		return submission.Submission{}, errors.Wrap(err, "decoding attachments")
	}
	if err := json.Unmarshal(row.RubricScores, &sub.RubricScores); err != nil {
		return submission.Submission{}, errors.Wrap(err, "decoding rubric scores")
	}
	if row.GradePoints.Valid {
		sub.Grade = &submission.Grade{
			Points:      row.GradePoints.Int,
			Percentage:  row.GradePercentage.Float64,
			LetterGrade: row.LetterGrade.String,
			GradedAt:    row.GradedAt.Time,
			GradedBy:    row.GradedBy.String,
		}
	}
	return sub, nil
}

func (repo submissionRepository) CheckSubmissionUniqueness(ctx context.Context, assignmentID, studentID string) error {
	var count int
	query := `SELECT COUNT(*) FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &count, query, assignmentID, studentID); err != nil {
		return errors.Wrap(err, "checking submission uniqueness")
	}
	if count > 0 {
		return submission.ErrExists
	}
	return nil
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	row, err := repo.row(sub)
	if err != nil {
		return submission.Submission{}, err
	}
	query := `
INSERT INTO submission (id, assignment_id, student_id, submission_text, attachments, is_late, status, submitted_at,
                        feedback, rubric_scores, grade_points, grade_percentage, letter_grade, graded_at, graded_by,
                        created_at, updated_at)
VALUES (:id, :assignment_id, :student_id, :submission_text, :attachments, :is_late, :status, :submitted_at,
        :feedback, :rubric_scores, :grade_points, :grade_percentage, :letter_grade, :graded_at, :graded_by,
        :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err, "submission_attempt_key") {
			return submission.Submission{}, submission.ErrExists
		}
		return submission.Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM submission WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	return repo.unrow(row)
}

func (repo submissionRepository) GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (submission.Submission, error) {
	var row submissionRow
	query := `SELECT * FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	return repo.unrow(row)
}

func (repo submissionRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]submission.Submission, error) {
	var rows []submissionRow
	query := `SELECT * FROM submission WHERE assignment_id = $1 ORDER BY submitted_at`
	if err := repo.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	row, err := repo.row(sub)
	if err != nil {
		return submission.Submission{}, err
	}
	query := `
UPDATE submission
SET submission_text = :submission_text, attachments = :attachments, is_late = :is_late, status = :status,
    submitted_at = :submitted_at, feedback = :feedback, rubric_scores = :rubric_scores,
    grade_points = :grade_points, grade_percentage = :grade_percentage, letter_grade = :letter_grade,
    graded_at = :graded_at, graded_by = :graded_by, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return sub, nil
}

func (repo submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM submission WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting submissions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting submissions")
	}
	return int(n), nil
}
