package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/grade"
)

type dbGrade struct {
	ID        int         `db:"id"`
	StudentID int         `db:"student_id"`
	SubjectID int         `db:"subject_id"`
	TeacherID int         `db:"teacher_id"`
	Value     float64     `db:"value"`
	Comment   null.String `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
}

func (g dbGrade) toGrade() grade.Grade {
	return grade.Grade{
		ID:        g.ID,
		StudentID: g.StudentID,
		SubjectID: g.SubjectID,
		TeacherID: g.TeacherID,
		Value:     g.Value,
		Comment:   g.Comment,
		CreatedAt: g.CreatedAt,
	}
}

func toGrades(rows []dbGrade) []grade.Grade {
	grades := make([]grade.Grade, 0, len(rows))
	for _, g := range rows {
		grades = append(grades, g.toGrade())
	}
	return grades
}

const gradeColumns = `id, student_id, subject_id, teacher_id, value, comment, created_at`

type gradeRepository struct {
	exec core.DBExecutor
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{exec: exec}
}

func (repo gradeRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	q := `
	INSERT INTO grade (student_id, subject_id, teacher_id, value, comment, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &grd.ID, q,
		grd.StudentID, grd.SubjectID, grd.TeacherID, grd.Value, grd.Comment, grd.CreatedAt)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return grd, nil
}

func (repo gradeRepository) GetGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) (grade.Grade, error) {
	var row dbGrade
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+gradeColumns+` FROM grade WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "finding grade by ID")
	}
	return row.toGrade(), nil
}

func (repo gradeRepository) QueryAllGrades(ctx context.Context, exec ...core.DBExecutor) ([]grade.Grade, error) {
	return repo.queryGrades(ctx, `SELECT `+gradeColumns+` FROM grade ORDER BY created_at DESC`, nil, "querying grades", exec)
}

func (repo gradeRepository) QueryGradesByStudentID(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	q := `SELECT ` + gradeColumns + ` FROM grade WHERE student_id = $1 ORDER BY created_at DESC`
	return repo.queryGrades(ctx, q, []interface{}{studentID}, "querying grades by student", exec)
}

func (repo gradeRepository) QueryGradesBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	q := `SELECT ` + gradeColumns + ` FROM grade WHERE subject_id = $1 ORDER BY created_at DESC`
	return repo.queryGrades(ctx, q, []interface{}{subjectID}, "querying grades by subject", exec)
}

func (repo gradeRepository) QueryGradesByTeacherID(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	q := `SELECT ` + gradeColumns + ` FROM grade WHERE teacher_id = $1 ORDER BY created_at DESC`
	return repo.queryGrades(ctx, q, []interface{}{teacherID}, "querying grades by teacher", exec)
}

func (repo gradeRepository) QueryGradesByStudentAndSubject(ctx context.Context, studentID, subjectID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	q := `SELECT ` + gradeColumns + ` FROM grade WHERE student_id = $1 AND subject_id = $2 ORDER BY created_at DESC`
	return repo.queryGrades(ctx, q, []interface{}{studentID, subjectID}, "querying grades by student and subject", exec)
}

func (repo gradeRepository) QueryRecentGrades(ctx context.Context, limit int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	q := `SELECT ` + gradeColumns + ` FROM grade ORDER BY created_at DESC, id DESC LIMIT $1`
	return repo.queryGrades(ctx, q, []interface{}{limit}, "querying recent grades", exec)
}

func (repo gradeRepository) queryGrades(ctx context.Context, q string, args []interface{}, msg string, exec []core.DBExecutor) ([]grade.Grade, error) {
	var rows []dbGrade
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	return toGrades(rows), nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	q := `UPDATE grade SET value = $1, comment = $2 WHERE id = $3`
	res, err := repo.getExec(exec).ExecContext(ctx, q, grd.Value, grd.Comment, grd.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return grd, nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id int, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM grade WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return nil
}
