package pgdb

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/class"
)

type dbClass struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Level int    `db:"level"`
}

func (c dbClass) toClass() class.Class {
	return class.Class{ID: c.ID, Name: c.Name, Level: c.Level}
}

func toClasses(rows []dbClass) []class.Class {
	classes := make([]class.Class, 0, len(rows))
	for _, c := range rows {
		classes = append(classes, c.toClass())
	}
	return classes
}

type classRepository struct {
	exec core.DBExecutor
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(exec core.DBExecutor) *classRepository {
	return &classRepository{exec: exec}
}

func (repo classRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo classRepository) CheckNameUniqueness(ctx context.Context, name string, level, excludedID int, exec ...core.DBExecutor) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM class WHERE name = $1 AND level = $2 AND id != $3)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, name, level, excludedID); err != nil {
		return errors.Wrap(err, "checking class uniqueness")
	}
	if exists {
		return class.ErrClassExists
	}
	return nil
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	q := `INSERT INTO class (name, level) VALUES ($1, $2) RETURNING id`
	if err := repo.getExec(exec).GetContext(ctx, &cls.ID, q, cls.Name, cls.Level); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (class.Class, error) {
	var row dbClass
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT id, name, level FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "finding class by ID")
	}
	return row.toClass(), nil
}

func (repo classRepository) ClassExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM class WHERE id = $1)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, id); err != nil {
		return false, errors.Wrap(err, "checking class existence")
	}
	return exists, nil
}

func (repo classRepository) QueryAllClasses(ctx context.Context, exec ...core.DBExecutor) ([]class.Class, error) {
	var rows []dbClass
	q := `SELECT id, name, level FROM class ORDER BY level, name`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return toClasses(rows), nil
}

func (repo classRepository) QueryClassesByLevel(ctx context.Context, level int, exec ...core.DBExecutor) ([]class.Class, error) {
	var rows []dbClass
	q := `SELECT id, name, level FROM class WHERE level = $1 ORDER BY name`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, level); err != nil {
		return nil, errors.Wrap(err, "querying classes by level")
	}
	return toClasses(rows), nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	q := `UPDATE class SET name = $1, level = $2 WHERE id = $3`
	res, err := repo.getExec(exec).ExecContext(ctx, q, cls.Name, cls.Level, cls.ID)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM class WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}
