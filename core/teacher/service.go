package teacher

import (
	"context"
	"errors"
	"time"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("teacher not found")
	ErrProfileExists   = errors.New("this user already has a teacher profile")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrClassNotFound   = errors.New("class not found")
)

type (
	// SubjectRepository and ClassRepository are the slices of those
	// stores this package needs. Declared here because subject and class
	// depend on teacher for their rosters.
	SubjectRepository interface {
		SubjectExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
	}

	ClassRepository interface {
		ClassExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
	}

	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		GetTeacherByID(ctx context.Context, userID int, exec ...core.DBExecutor) (Teacher, error)
		QueryAllTeachers(ctx context.Context, exec ...core.DBExecutor) ([]Teacher, error)
		QueryTeachersBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]Teacher, error)
		QueryTeachersByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]Teacher, error)
		// AddSubject and friends are idempotent: adding a present or
		// removing an absent association is a no-op, not an error.
		AddSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error
		RemoveSubject(ctx context.Context, teacherID, subjectID int, exec ...core.DBExecutor) error
		// SetSubjects replaces the association set with exactly subjectIDs.
		SetSubjects(ctx context.Context, teacherID int, subjectIDs []int, exec ...core.DBExecutor) error
		AddClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error
		RemoveClass(ctx context.Context, teacherID, classID int, exec ...core.DBExecutor) error
		SetClasses(ctx context.Context, teacherID int, classIDs []int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nt NewTeacher) (Teacher, error)
		GetByID(ctx context.Context, id int) (Teacher, error)
		QueryAll(ctx context.Context) ([]Teacher, error)
		QueryBySubject(ctx context.Context, subjectID int) ([]Teacher, error)
		QueryByClass(ctx context.Context, classID int) ([]Teacher, error)
		Update(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error)
		AddSubject(ctx context.Context, id, subjectID int) (Teacher, error)
		RemoveSubject(ctx context.Context, id, subjectID int) (Teacher, error)
		AddClass(ctx context.Context, id, classID int) (Teacher, error)
		RemoveClass(ctx context.Context, id, classID int) (Teacher, error)
		// Delete soft-deletes the underlying user account.
		Delete(ctx context.Context, id int) error
	}

	service struct {
		db      core.DB
		repo    Repository
		subRepo SubjectRepository
		clsRepo ClassRepository
		usrRepo user.Repository
		usrSvc  user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, subRepo SubjectRepository, clsRepo ClassRepository, usrRepo user.Repository, usrSvc user.Service) Service {
	return &service{
		db:      db,
		repo:    repo,
		subRepo: subRepo,
		clsRepo: clsRepo,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
}

// Create inserts the base User, the Teacher profile and its initial
// associations as one atomic unit.
func (svc *service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := svc.checkSubjects(ctx, nt.SubjectIDs); err != nil {
		return Teacher{}, err
	}
	if err := svc.checkClasses(ctx, nt.ClassIDs); err != nil {
		return Teacher{}, err
	}
	usr, err := user.BuildUser(nt.NewUser)
	if err != nil {
		return Teacher{}, err
	}

	tx, err := core.BeginTx(ctx, svc.db)
	if err != nil {
		return Teacher{}, err
	}
	defer core.RollbackTx(tx)

	usr, err = svc.usrRepo.CreateUser(ctx, usr, core.Execs(tx)...)
	if err != nil {
		return Teacher{}, err
	}
	t := Teacher{
		UserID:     usr.ID,
		SubjectIDs: dedupe(nt.SubjectIDs),
		ClassIDs:   dedupe(nt.ClassIDs),
		User:       usr,
	}
	if t, err = svc.repo.CreateTeacher(ctx, t, core.Execs(tx)...); err != nil {
		return Teacher{}, err
	}
	if err = core.CommitTx(tx); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryAllTeachers(ctx)
}

func (svc *service) QueryBySubject(ctx context.Context, subjectID int) ([]Teacher, error) {
	return svc.repo.QueryTeachersBySubjectID(ctx, subjectID)
}

func (svc *service) QueryByClass(ctx context.Context, classID int) ([]Teacher, error) {
	return svc.repo.QueryTeachersByClassID(ctx, classID)
}

func (svc *service) Update(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if err = svc.checkSubjects(ctx, ut.SubjectIDs); err != nil {
		return Teacher{}, err
	}
	if err = svc.checkClasses(ctx, ut.ClassIDs); err != nil {
		return Teacher{}, err
	}

	tx, err := core.BeginTx(ctx, svc.db)
	if err != nil {
		return Teacher{}, err
	}
	defer core.RollbackTx(tx)

	usr := t.User
	ut.Apply(&usr)
	if ut.Password.Valid && ut.Password.String != "" {
		if err = usr.SetPassword(ut.Password.String); err != nil {
			return Teacher{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.usrRepo.UpdateUser(ctx, usr, core.Execs(tx)...); err != nil {
		return Teacher{}, err
	}

	// nil leaves associations untouched; an explicit empty list clears
	if ut.SubjectIDs != nil {
		if err = svc.repo.SetSubjects(ctx, id, dedupe(ut.SubjectIDs), core.Execs(tx)...); err != nil {
			return Teacher{}, err
		}
	}
	if ut.ClassIDs != nil {
		if err = svc.repo.SetClasses(ctx, id, dedupe(ut.ClassIDs), core.Execs(tx)...); err != nil {
			return Teacher{}, err
		}
	}
	if err = core.CommitTx(tx); err != nil {
		return Teacher{}, err
	}
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) AddSubject(ctx context.Context, id, subjectID int) (Teacher, error) {
	if err := svc.checkSubjects(ctx, []int{subjectID}); err != nil {
		return Teacher{}, err
	}
	if err := svc.repo.AddSubject(ctx, id, subjectID); err != nil {
		return Teacher{}, err
	}
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) RemoveSubject(ctx context.Context, id, subjectID int) (Teacher, error) {
	if err := svc.repo.RemoveSubject(ctx, id, subjectID); err != nil {
		return Teacher{}, err
	}
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) AddClass(ctx context.Context, id, classID int) (Teacher, error) {
	if err := svc.checkClasses(ctx, []int{classID}); err != nil {
		return Teacher{}, err
	}
	if err := svc.repo.AddClass(ctx, id, classID); err != nil {
		return Teacher{}, err
	}
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) RemoveClass(ctx context.Context, id, classID int) (Teacher, error) {
	if err := svc.repo.RemoveClass(ctx, id, classID); err != nil {
		return Teacher{}, err
	}
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetTeacherByID(ctx, id); err != nil {
		return err
	}
	return svc.usrSvc.Delete(ctx, id)
}

func (svc *service) checkSubjects(ctx context.Context, ids []int) error {
	for _, id := range ids {
		ok, err := svc.subRepo.SubjectExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSubjectNotFound
		}
	}
	return nil
}

func (svc *service) checkClasses(ctx context.Context, ids []int) error {
	for _, id := range ids {
		ok, err := svc.clsRepo.ClassExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClassNotFound
		}
	}
	return nil
}
