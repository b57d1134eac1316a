package pgdb

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/teacher"
)

type dbTeacher struct {
	UserID     int           `db:"user_id"`
	SubjectIDs pq.Int64Array `db:"subject_ids"`
	ClassIDs   pq.Int64Array `db:"class_ids"`
	dbUser
}

func (t dbTeacher) toTeacher() teacher.Teacher {
	return teacher.Teacher{
		UserID:     t.UserID,
		SubjectIDs: toInts(t.SubjectIDs),
		ClassIDs:   toInts(t.ClassIDs),
		User:       t.dbUser.toUser(),
	}
}

func toTeachers(rows []dbTeacher) []teacher.Teacher {
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, t := range rows {
		teachers = append(teachers, t.toTeacher())
	}
	return teachers
}

func toInts(arr pq.Int64Array) []int {
	ids := make([]int, 0, len(arr))
	for _, id := range arr {
		ids = append(ids, int(id))
	}
	return ids
}

const teacherQuery = `
SELECT t.user_id,
	COALESCE(array_agg(DISTINCT ts.subject_id) FILTER (WHERE ts.subject_id IS NOT NULL), '{}') AS subject_ids,
	COALESCE(array_agg(DISTINCT tc.class_id) FILTER (WHERE tc.class_id IS NOT NULL), '{}') AS class_ids,
	u.*
FROM teacher t
INNER JOIN "user" u ON u.id = t.user_id
LEFT JOIN teacher_subject ts ON ts.teacher_id = t.user_id
LEFT JOIN teacher_class tc ON tc.teacher_id = t.user_id`

const teacherGroupBy = ` GROUP BY t.user_id, u.id`

type teacherRepository struct {
	exec core.DBExecutor
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{exec: exec}
}

func (repo teacherRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	exe := repo.getExec(exec)

	if _, err := exe.ExecContext(ctx, `INSERT INTO teacher (user_id) VALUES ($1)`, t.UserID); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return teacher.Teacher{}, teacher.ErrProfileExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	if err := repo.insertAssociations(ctx, exe, "teacher_subject", "subject_id", t.UserID, t.SubjectIDs); err != nil {
		return teacher.Teacher{}, err
	}
	if err := repo.insertAssociations(ctx, exe, "teacher_class", "class_id", t.UserID, t.ClassIDs); err != nil {
		return teacher.Teacher{}, err
	}
	return t, nil
}

func (repo teacherRepository) GetTeacherByID(ctx context.Context, userID int, exec ...core.DBExecutor) (teacher.Teacher, error) {
	var row dbTeacher
	q := teacherQuery + " WHERE t.user_id = $1" + teacherGroupBy
	if err := repo.getExec(exec).GetContext(ctx, &row, q, userID); err != nil {
		if err == sql.ErrNoRows {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher by ID")
	}
	return row.toTeacher(), nil
}

func (repo teacherRepository) QueryAllTeachers(ctx context.Context, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	var rows []dbTeacher
	if err := repo.getExec(exec).SelectContext(ctx, &rows, teacherQuery+teacherGroupBy); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	return toTeachers(rows), nil
}

func (repo teacherRepository) QueryTeachersBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	var rows []dbTeacher
	q := teacherQuery + ` WHERE t.user_id IN (SELECT teacher_id FROM teacher_subject WHERE subject_id = $1)` + teacherGroupBy
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, subjectID); err != nil {
		return nil, errors.Wrap(err, "querying teachers by subject")
	}
	return toTeachers(rows), nil
}

func (repo teacherRepository) QueryTeachersByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	var rows []dbTeacher
	q := teacherQuery + ` WHERE t.user_id IN (SELECT teacher_id FROM teacher_class WHERE class_id = $1)` + teacherGroupBy
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying teachers by class")
	}
	return toTeachers(rows), nil
}

func (repo teacherRepository) AddSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error {
	q := `INSERT INTO teacher_subject (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, teacherID, subjectID); err != nil {
		return errors.Wrap(err, "adding teacher subject")
	}
	return nil
}

func (repo teacherRepository) RemoveSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error {
	q := `DELETE FROM teacher_subject WHERE teacher_id = $1 AND subject_id = $2`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, teacherID, subjectID); err != nil {
		return errors.Wrap(err, "removing teacher subject")
	}
	return nil
}

func (repo teacherRepository) SetSubjects(ctx context.Context, teacherID int, subjectIDs []int, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	if _, err := exe.ExecContext(ctx, `DELETE FROM teacher_subject WHERE teacher_id = $1`, teacherID); err != nil {
		return errors.Wrap(err, "clearing teacher subjects")
	}
	return repo.insertAssociations(ctx, exe, "teacher_subject", "subject_id", teacherID, subjectIDs)
}

func (repo teacherRepository) AddClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error {
	q := `INSERT INTO teacher_class (teacher_id, class_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, teacherID, classID); err != nil {
		return errors.Wrap(err, "adding teacher class")
	}
	return nil
}

func (repo teacherRepository) RemoveClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error {
	q := `DELETE FROM teacher_class WHERE teacher_id = $1 AND class_id = $2`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, teacherID, classID); err != nil {
		return errors.Wrap(err, "removing teacher class")
	}
	return nil
}

func (repo teacherRepository) SetClasses(ctx context.Context, teacherID int, classIDs []int, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	if _, err := exe.ExecContext(ctx, `DELETE FROM teacher_class WHERE teacher_id = $1`, teacherID); err != nil {
		return errors.Wrap(err, "clearing teacher classes")
	}
	return repo.insertAssociations(ctx, exe, "teacher_class", "class_id", teacherID, classIDs)
}

func (repo teacherRepository) insertAssociations(ctx context.Context, exe core.DBExecutor, table, column string, teacherID int, ids []int) error {
	q := `INSERT INTO ` + table + ` (teacher_id, ` + column + `) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, id := range ids {
		if _, err := exe.ExecContext(ctx, q, teacherID, id); err != nil {
			return errors.Wrapf(err, "inserting %s association", table)
		}
	}
	return nil
}
