package pgdb

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/writer"
)

type dbWriter struct {
	UserID int `db:"user_id"`
	dbUser
}

func (w dbWriter) toWriter() writer.Writer {
	return writer.Writer{
		UserID: w.UserID,
		User:   w.dbUser.toUser(),
	}
}

const writerQuery = `
SELECT w.user_id, u.*
FROM writer w
INNER JOIN "user" u ON u.id = w.user_id`

type writerRepository struct {
	exec core.DBExecutor
}

var _ writer.Repository = (*writerRepository)(nil) // interface compliance check

func NewWriterRepository(exec core.DBExecutor) *writerRepository {
	return &writerRepository{exec: exec}
}

func (repo writerRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo writerRepository) CreateWriter(ctx context.Context, w writer.Writer, exec ...core.DBExecutor) (writer.Writer, error) {
	if _, err := repo.getExec(exec).ExecContext(ctx, `INSERT INTO writer (user_id) VALUES ($1)`, w.UserID); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return writer.Writer{}, writer.ErrProfileExists
		}
		return writer.Writer{}, errors.Wrap(err, "inserting writer")
	}
	return w, nil
}

func (repo writerRepository) GetWriterByID(ctx context.Context, userID int, exec ...core.DBExecutor) (writer.Writer, error) {
	var row dbWriter
	if err := repo.getExec(exec).GetContext(ctx, &row, writerQuery+" WHERE w.user_id = $1", userID); err != nil {
		if err == sql.ErrNoRows {
			return writer.Writer{}, writer.ErrNotFound
		}
		return writer.Writer{}, errors.Wrap(err, "finding writer by ID")
	}
	return row.toWriter(), nil
}

func (repo writerRepository) WriterExists(ctx context.Context, userID int, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM writer WHERE user_id = $1)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, userID); err != nil {
		return false, errors.Wrap(err, "checking writer existence")
	}
	return exists, nil
}

func (repo writerRepository) QueryAllWriters(ctx context.Context, exec ...core.DBExecutor) ([]writer.Writer, error) {
	var rows []dbWriter
	if err := repo.getExec(exec).SelectContext(ctx, &rows, writerQuery); err != nil {
		return nil, errors.Wrap(err, "querying writers")
	}
	writers := make([]writer.Writer, 0, len(rows))
	for _, w := range rows {
		writers = append(writers, w.toWriter())
	}
	return writers, nil
}
