package subject

import (
	"context"
	"errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/teacher"
)

var (
	// errors
	ErrNotFound      = errors.New("subject not found")
	ErrSubjectExists = errors.New("a subject with this name already exists")
)

type (
	Repository interface {
		// CheckNameUniqueness ignores the row with excludedID when updating.
		CheckNameUniqueness(ctx context.Context, name string, excludedID int, exec ...core.DBExecutor) error
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (Subject, error)
		SubjectExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
		QueryAllSubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		DeleteSubject(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, ns NewSubject) (Subject, error)
		GetByID(ctx context.Context, id int) (Subject, error)
		QueryAll(ctx context.Context) ([]Subject, error)
		Update(ctx context.Context, id int, us UpdateSubject) (Subject, error)
		// Delete removes the subject; teacher associations and grades
		// referencing it are dropped with it.
		Delete(ctx context.Context, id int) error
		Teachers(ctx context.Context, id int) ([]teacher.Teacher, error)
	}

	service struct {
		repo    Repository
		tchRepo teacher.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, tchRepo teacher.Repository) Service {
	return &service{
		repo:    repo,
		tchRepo: tchRepo,
	}
}

func (svc *service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := svc.checkUniqueness(ctx, ns.Name, 0); err != nil {
		return Subject{}, err
	}
	sub := Subject{Name: ns.Name}
	if ns.Description != "" {
		sub.Description.SetValid(ns.Description)
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *service) Update(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	us.Apply(&sub)
	if err = svc.checkUniqueness(ctx, sub.Name, sub.ID); err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetSubjectByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSubject(ctx, id)
}

func (svc *service) Teachers(ctx context.Context, id int) ([]teacher.Teacher, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, id); err != nil {
		return nil, err
	}
	return svc.tchRepo.QueryTeachersBySubjectID(ctx, id)
}

func (svc *service) checkUniqueness(ctx context.Context, name string, excludedID int) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, excludedID); err != nil {
		if err == ErrSubjectExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}
