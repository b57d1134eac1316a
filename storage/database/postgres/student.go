package pgdb

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/student"
)

type dbStudent struct {
	UserID  int      `db:"user_id"`
	ClassID null.Int `db:"class_id"`
	dbUser
}

func (s dbStudent) toStudent() student.Student {
	return student.Student{
		UserID:  s.UserID,
		ClassID: s.ClassID,
		User:    s.dbUser.toUser(),
	}
}

func toStudents(rows []dbStudent) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, s := range rows {
		students = append(students, s.toStudent())
	}
	return students
}

const studentQuery = `
SELECT s.user_id, s.class_id, u.*
FROM student s
INNER JOIN "user" u ON u.id = s.user_id`

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `INSERT INTO student (user_id, class_id) VALUES ($1, $2)`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, st.UserID, st.ClassID); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return student.Student{}, student.ErrProfileExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, userID int, exec ...core.DBExecutor) (student.Student, error) {
	var row dbStudent
	if err := repo.getExec(exec).GetContext(ctx, &row, studentQuery+" WHERE s.user_id = $1", userID); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	return row.toStudent(), nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context, exec ...core.DBExecutor) ([]student.Student, error) {
	var rows []dbStudent
	if err := repo.getExec(exec).SelectContext(ctx, &rows, studentQuery); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toStudents(rows), nil
}

func (repo studentRepository) QueryStudentsByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]student.Student, error) {
	var rows []dbStudent
	if err := repo.getExec(exec).SelectContext(ctx, &rows, studentQuery+" WHERE s.class_id = $1", classID); err != nil {
		return nil, errors.Wrap(err, "querying students by class")
	}
	return toStudents(rows), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `UPDATE student SET class_id = $1 WHERE user_id = $2`
	res, err := repo.getExec(exec).ExecContext(ctx, q, st.ClassID, st.UserID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}
