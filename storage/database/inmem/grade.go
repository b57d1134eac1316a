package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

// query returns matching grades newest first. Callers hold the lock.
func (repo *gradeRepository) query(match func(grade.Grade) bool) []grade.Grade {
	grades := make([]grade.Grade, 0, len(repo.db.grades))
	for _, grd := range repo.db.grades {
		if match != nil && !match(*grd) {
			continue
		}
		grades = append(grades, *grd)
	}
	sort.Slice(grades, func(i, j int) bool {
		if !grades[i].CreatedAt.Equal(grades[j].CreatedAt) {
			return grades[i].CreatedAt.After(grades[j].CreatedAt)
		}
		return grades[i].ID > grades[j].ID
	})
	return grades
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.gradePK++
	grd.ID = repo.db.gradePK
	repo.db.grades[grd.ID] = &grd
	return grd, nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grd, ok := repo.db.grades[id]; ok {
		return *grd, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryAllGrades(ctx context.Context, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil), nil
}

func (repo *gradeRepository) QueryGradesByStudentID(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(grd grade.Grade) bool { return grd.StudentID == studentID }), nil
}

func (repo *gradeRepository) QueryGradesBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(grd grade.Grade) bool { return grd.SubjectID == subjectID }), nil
}

func (repo *gradeRepository) QueryGradesByTeacherID(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(grd grade.Grade) bool { return grd.TeacherID == teacherID }), nil
}

func (repo *gradeRepository) QueryGradesByStudentAndSubject(ctx context.Context, studentID, subjectID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(grd grade.Grade) bool {
		return grd.StudentID == studentID && grd.SubjectID == subjectID
	}), nil
}

func (repo *gradeRepository) QueryRecentGrades(ctx context.Context, limit int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := repo.query(nil)
	if limit >= 0 && limit < len(grades) {
		grades = grades[:limit]
	}
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.grades[grd.ID]; !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	repo.db.grades[grd.ID] = &grd
	return grd, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.grades, id)
	return nil
}
