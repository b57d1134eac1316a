package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) query(match func(class.Class) bool) []class.Class {
	classes := make([]class.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if match != nil && !match(*cls) {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Level != classes[j].Level {
			return classes[i].Level < classes[j].Level
		}
		return classes[i].Name < classes[j].Name
	})
	return classes
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string, level, excludedID int, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, cls := range repo.db.classes {
		if cls.ID != excludedID && cls.Name == name && cls.Level == level {
			return class.ErrClassExists
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.classPK++
	cls.ID = repo.db.classPK
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) ClassExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.classes[id]
	return ok, nil
}

func (repo *classRepository) QueryAllClasses(ctx context.Context, exec ...core.DBExecutor) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil), nil
}

func (repo *classRepository) QueryClassesByLevel(ctx context.Context, level int, exec ...core.DBExecutor) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(cls class.Class) bool { return cls.Level == level }), nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

// DeleteClass mirrors the FK behavior of the real schema: enrolled students
// become unassigned and teacher associations are dropped.
func (repo *classRepository) DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.classes, id)
	for _, row := range repo.db.students {
		if row.classID.Valid && row.classID.Int == id {
			row.classID.Valid = false
			row.classID.Int = 0
		}
	}
	for _, row := range repo.db.teachers {
		row.classIDs = remove(row.classIDs, id)
	}
	return nil
}
