package class

import (
	"context"
	"errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/teacher"
)

var (
	// errors
	ErrNotFound    = errors.New("class not found")
	ErrClassExists = errors.New("a class with this name already exists at this level")
)

type (
	Repository interface {
		// CheckNameUniqueness enforces the (name, level) pair constraint,
		// ignoring the row with excludedID when updating.
		CheckNameUniqueness(ctx context.Context, name string, level, excludedID int, exec ...core.DBExecutor) error
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		ClassExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
		QueryAllClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)
		QueryClassesByLevel(ctx context.Context, level int, exec ...core.DBExecutor) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nc NewClass) (Class, error)
		GetByID(ctx context.Context, id int) (Class, error)
		QueryAll(ctx context.Context) ([]Class, error)
		QueryByLevel(ctx context.Context, level int) ([]Class, error)
		QueryByTeacher(ctx context.Context, teacherID int) ([]Class, error)
		Update(ctx context.Context, id int, uc UpdateClass) (Class, error)
		// Delete removes the class; enrolled students keep their accounts
		// and end up unassigned, teacher associations are dropped.
		Delete(ctx context.Context, id int) error

		Students(ctx context.Context, id int) ([]student.Student, error)
		StudentCount(ctx context.Context, id int) (int, error)
		Teachers(ctx context.Context, id int) ([]teacher.Teacher, error)
		AddTeacher(ctx context.Context, id, teacherID int) error
		RemoveTeacher(ctx context.Context, id, teacherID int) error
	}

	service struct {
		repo    Repository
		stdRepo student.Repository
		tchRepo teacher.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stdRepo student.Repository, tchRepo teacher.Repository) Service {
	return &service{
		repo:    repo,
		stdRepo: stdRepo,
		tchRepo: tchRepo,
	}
}

func (svc *service) Create(ctx context.Context, nc NewClass) (Class, error) {
	if err := svc.checkUniqueness(ctx, nc.Name, nc.Level, 0); err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(ctx, Class{Name: nc.Name, Level: nc.Level})
}

func (svc *service) GetByID(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *service) QueryByLevel(ctx context.Context, level int) ([]Class, error) {
	return svc.repo.QueryClassesByLevel(ctx, level)
}

func (svc *service) QueryByTeacher(ctx context.Context, teacherID int) ([]Class, error) {
	t, err := svc.tchRepo.GetTeacherByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	classes := make([]Class, 0, len(t.ClassIDs))
	for _, id := range t.ClassIDs {
		cls, err := svc.repo.GetClassByID(ctx, id)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func (svc *service) Update(ctx context.Context, id int, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	uc.Apply(&cls)
	if err = svc.checkUniqueness(ctx, cls.Name, cls.Level, cls.ID); err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *service) Students(ctx context.Context, id int) ([]student.Student, error) {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return nil, err
	}
	return svc.stdRepo.QueryStudentsByClassID(ctx, id)
}

func (svc *service) StudentCount(ctx context.Context, id int) (int, error) {
	students, err := svc.Students(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(students), nil
}

func (svc *service) Teachers(ctx context.Context, id int) ([]teacher.Teacher, error) {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return nil, err
	}
	return svc.tchRepo.QueryTeachersByClassID(ctx, id)
}

func (svc *service) AddTeacher(ctx context.Context, id, teacherID int) error {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return err
	}
	if _, err := svc.tchRepo.GetTeacherByID(ctx, teacherID); err != nil {
		return err
	}
	return svc.tchRepo.AddClass(ctx, teacherID, id)
}

func (svc *service) RemoveTeacher(ctx context.Context, id, teacherID int) error {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return err
	}
	if _, err := svc.tchRepo.GetTeacherByID(ctx, teacherID); err != nil {
		return err
	}
	return svc.tchRepo.RemoveClass(ctx, teacherID, id)
}

func (svc *service) checkUniqueness(ctx context.Context, name string, level, excludedID int) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, level, excludedID); err != nil {
		if err == ErrClassExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}
