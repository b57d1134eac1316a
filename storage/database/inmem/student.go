package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/user"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// toStudent resolves the base user. Callers hold the lock.
func (repo *studentRepository) toStudent(row *studentRow) (student.Student, error) {
	usr, ok := repo.db.users[row.userID]
	if !ok {
		return student.Student{}, user.ErrNotFound
	}
	return student.Student{UserID: row.userID, ClassID: row.classID, User: *usr}, nil
}

func (repo *studentRepository) query(match func(*studentRow) bool) ([]student.Student, error) {
	ids := make([]int, 0, len(repo.db.students))
	for id := range repo.db.students {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	students := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		row := repo.db.students[id]
		if match != nil && !match(row) {
			continue
		}
		st, err := repo.toStudent(row)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[st.UserID]; ok {
		return student.Student{}, student.ErrProfileExists
	}
	repo.db.students[st.UserID] = &studentRow{userID: st.UserID, classID: st.ClassID}
	return repo.toStudent(repo.db.students[st.UserID])
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, userID int, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	row, ok := repo.db.students[userID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.toStudent(row)
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil)
}

func (repo *studentRepository) QueryStudentsByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(row *studentRow) bool {
		return row.classID.Valid && row.classID.Int == classID
	})
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.students[st.UserID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	row.classID = st.ClassID
	return repo.toStudent(row)
}
