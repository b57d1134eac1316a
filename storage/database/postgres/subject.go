package pgdb

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/subject"
)

type dbSubject struct {
	ID          int         `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
}

func (s dbSubject) toSubject() subject.Subject {
	return subject.Subject{ID: s.ID, Name: s.Name, Description: s.Description}
}

type subjectRepository struct {
	exec core.DBExecutor
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(exec core.DBExecutor) *subjectRepository {
	return &subjectRepository{exec: exec}
}

func (repo subjectRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo subjectRepository) CheckNameUniqueness(ctx context.Context, name string, excludedID int, exec ...core.DBExecutor) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM subject WHERE name = $1 AND id != $2)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, name, excludedID); err != nil {
		return errors.Wrap(err, "checking subject uniqueness")
	}
	if exists {
		return subject.ErrSubjectExists
	}
	return nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	q := `INSERT INTO subject (name, description) VALUES ($1, $2) RETURNING id`
	if err := repo.getExec(exec).GetContext(ctx, &sub.ID, q, sub.Name, sub.Description); err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (subject.Subject, error) {
	var row dbSubject
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT id, name, description FROM subject WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "finding subject by ID")
	}
	return row.toSubject(), nil
}

func (repo subjectRepository) SubjectExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM subject WHERE id = $1)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, id); err != nil {
		return false, errors.Wrap(err, "checking subject existence")
	}
	return exists, nil
}

func (repo subjectRepository) QueryAllSubjects(ctx context.Context, exec ...core.DBExecutor) ([]subject.Subject, error) {
	var rows []dbSubject
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT id, name, description FROM subject ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, s := range rows {
		subjects = append(subjects, s.toSubject())
	}
	return subjects, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	q := `UPDATE subject SET name = $1, description = $2 WHERE id = $3`
	res, err := repo.getExec(exec).ExecContext(ctx, q, sub.Name, sub.Description, sub.ID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return sub, nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id int, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM subject WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return nil
}
