package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db}
}

// toTeacher resolves the base user and copies the association slices so
// callers cannot mutate stored state. Callers hold the lock.
func (repo *teacherRepository) toTeacher(row *teacherRow) (teacher.Teacher, error) {
	usr, ok := repo.db.users[row.userID]
	if !ok {
		return teacher.Teacher{}, user.ErrNotFound
	}
	return teacher.Teacher{
		UserID:     row.userID,
		SubjectIDs: append([]int{}, row.subjectIDs...),
		ClassIDs:   append([]int{}, row.classIDs...),
		User:       *usr,
	}, nil
}

func (repo *teacherRepository) query(match func(*teacherRow) bool) ([]teacher.Teacher, error) {
	ids := make([]int, 0, len(repo.db.teachers))
	for id := range repo.db.teachers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	teachers := make([]teacher.Teacher, 0, len(ids))
	for _, id := range ids {
		row := repo.db.teachers[id]
		if match != nil && !match(row) {
			continue
		}
		t, err := repo.toTeacher(row)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.teachers[t.UserID]; ok {
		return teacher.Teacher{}, teacher.ErrProfileExists
	}
	repo.db.teachers[t.UserID] = &teacherRow{
		userID:     t.UserID,
		subjectIDs: append([]int{}, t.SubjectIDs...),
		classIDs:   append([]int{}, t.ClassIDs...),
	}
	return repo.toTeacher(repo.db.teachers[t.UserID])
}

func (repo *teacherRepository) GetTeacherByID(ctx context.Context, userID int, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	row, ok := repo.db.teachers[userID]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return repo.toTeacher(row)
}

func (repo *teacherRepository) QueryAllTeachers(ctx context.Context, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil)
}

func (repo *teacherRepository) QueryTeachersBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(row *teacherRow) bool { return contains(row.subjectIDs, subjectID) })
}

func (repo *teacherRepository) QueryTeachersByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(row *teacherRow) bool { return contains(row.classIDs, classID) })
}

func (repo *teacherRepository) AddSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.subjectIDs = add(row.subjectIDs, subjectID)
	})
}

func (repo *teacherRepository) RemoveSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.subjectIDs = remove(row.subjectIDs, subjectID)
	})
}

func (repo *teacherRepository) SetSubjects(ctx context.Context, teacherID int, subjectIDs []int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.subjectIDs = append([]int{}, subjectIDs...)
	})
}

func (repo *teacherRepository) AddClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.classIDs = add(row.classIDs, classID)
	})
}

func (repo *teacherRepository) RemoveClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.classIDs = remove(row.classIDs, classID)
	})
}

func (repo *teacherRepository) SetClasses(ctx context.Context, teacherID int, classIDs []int, exec ...core.DBExecutor) error {
	return repo.mutate(teacherID, func(row *teacherRow) {
		row.classIDs = append([]int{}, classIDs...)
	})
}

func (repo *teacherRepository) mutate(teacherID int, fn func(*teacherRow)) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.teachers[teacherID]
	if !ok {
		return teacher.ErrNotFound
	}
	fn(row)
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func add(ids []int, id int) []int {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func remove(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
