package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
	// Repositories take it as an optional override so that a service can
	// run several repository calls inside one transaction.
	DBExecutor interface {
		sqlx.ExtContext
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

// BeginTx starts a transaction on db. A nil db (in-memory repositories in
// tests) yields a nil transactor; Execs, CommitTx and RollbackTx all
// tolerate nil so service code reads the same either way.
func BeginTx(ctx context.Context, db DB) (DBTransactor, error) {
	if db == nil {
		return nil, nil
	}
	return db.BeginTxx(ctx, nil)
}

// Execs wraps tx as a repository executor override.
func Execs(tx DBTransactor) []DBExecutor {
	if tx == nil {
		return nil
	}
	return []DBExecutor{tx}
}

func CommitTx(tx DBTransactor) error {
	if tx == nil {
		return nil
	}
	return tx.Commit()
}

func RollbackTx(tx DBTransactor) {
	if tx != nil {
		_ = tx.Rollback()
	}
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
