package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CheckNameUniqueness(ctx context.Context, name string, excludedID int, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.ID != excludedID && sub.Name == name {
			return subject.ErrSubjectExists
		}
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.subjectPK++
	sub.ID = repo.db.subjectPK
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) SubjectExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.subjects[id]
	return ok, nil
}

func (repo *subjectRepository) QueryAllSubjects(ctx context.Context, exec ...core.DBExecutor) ([]subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[sub.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

// DeleteSubject drops teacher associations and grades referencing the
// subject, mirroring the FK cascade of the real schema.
func (repo *subjectRepository) DeleteSubject(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.subjects, id)
	for _, row := range repo.db.teachers {
		row.subjectIDs = remove(row.subjectIDs, id)
	}
	for gradeID, grd := range repo.db.grades {
		if grd.SubjectID == id {
			delete(repo.db.grades, gradeID)
		}
	}
	return nil
}
