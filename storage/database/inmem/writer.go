package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
)

type writerRepository struct {
	db *DB
}

var _ writer.Repository = (*writerRepository)(nil) // interface compliance check

func NewWriterRepository(db *DB) *writerRepository {
	return &writerRepository{db: db}
}

// toWriter resolves the base user. Callers hold the lock.
func (repo *writerRepository) toWriter(userID int) (writer.Writer, error) {
	usr, ok := repo.db.users[userID]
	if !ok {
		return writer.Writer{}, user.ErrNotFound
	}
	return writer.Writer{UserID: userID, User: *usr}, nil
}

func (repo *writerRepository) CreateWriter(ctx context.Context, w writer.Writer, exec ...core.DBExecutor) (writer.Writer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.writers[w.UserID]; ok {
		return writer.Writer{}, writer.ErrProfileExists
	}
	repo.db.writers[w.UserID] = struct{}{}
	return repo.toWriter(w.UserID)
}

func (repo *writerRepository) GetWriterByID(ctx context.Context, userID int, exec ...core.DBExecutor) (writer.Writer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if _, ok := repo.db.writers[userID]; !ok {
		return writer.Writer{}, writer.ErrNotFound
	}
	return repo.toWriter(userID)
}

func (repo *writerRepository) WriterExists(ctx context.Context, userID int, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.writers[userID]
	return ok, nil
}

func (repo *writerRepository) QueryAllWriters(ctx context.Context, exec ...core.DBExecutor) ([]writer.Writer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]int, 0, len(repo.db.writers))
	for id := range repo.db.writers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	writers := make([]writer.Writer, 0, len(ids))
	for _, id := range ids {
		w, err := repo.toWriter(id)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}
