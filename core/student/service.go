package student

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrProfileExists = errors.New("this user already has a student profile")
	ErrClassNotFound = errors.New("class not found")
)

type (
	// ClassRepository is the slice of the class store this package needs.
	// Declared here because the class package depends on student for its
	// rosters.
	ClassRepository interface {
		ClassExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
	}

	Repository interface {
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		GetStudentByID(ctx context.Context, userID int, exec ...core.DBExecutor) (Student, error)
		QueryAllStudents(ctx context.Context, exec ...core.DBExecutor) ([]Student, error)
		QueryStudentsByClassID(ctx context.Context, classID int, exec ...core.DBExecutor) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		QueryByClass(ctx context.Context, classID int) ([]Student, error)
		ClassID(ctx context.Context, id int) (null.Int, error)
		Update(ctx context.Context, id int, us UpdateStudent) (Student, error)
		// Delete soft-deletes the underlying user account.
		Delete(ctx context.Context, id int) error
	}

	service struct {
		db      core.DB
		repo    Repository
		clsRepo ClassRepository
		usrRepo user.Repository
		usrSvc  user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, clsRepo ClassRepository, usrRepo user.Repository, usrSvc user.Service) Service {
	return &service{
		db:      db,
		repo:    repo,
		clsRepo: clsRepo,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
}

// Create inserts the base User and the Student profile as one atomic unit:
// a failed user insert leaves no profile row behind.
func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkClass(ctx, ns.ClassID); err != nil {
		return Student{}, err
	}
	usr, err := user.BuildUser(ns.NewUser)
	if err != nil {
		return Student{}, err
	}

	tx, err := core.BeginTx(ctx, svc.db)
	if err != nil {
		return Student{}, err
	}
	defer core.RollbackTx(tx)

	usr, err = svc.usrRepo.CreateUser(ctx, usr, core.Execs(tx)...)
	if err != nil {
		return Student{}, err
	}
	st, err := svc.repo.CreateStudent(ctx, Student{UserID: usr.ID, ClassID: ns.ClassID, User: usr}, core.Execs(tx)...)
	if err != nil {
		return Student{}, err
	}
	if err = core.CommitTx(tx); err != nil {
		return Student{}, err
	}
	return st, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *service) QueryByClass(ctx context.Context, classID int) ([]Student, error) {
	return svc.repo.QueryStudentsByClassID(ctx, classID)
}

func (svc *service) ClassID(ctx context.Context, id int) (null.Int, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return null.Int{}, err
	}
	return st.ClassID, nil
}

func (svc *service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.checkClass(ctx, us.ClassID); err != nil {
		return Student{}, err
	}

	tx, err := core.BeginTx(ctx, svc.db)
	if err != nil {
		return Student{}, err
	}
	defer core.RollbackTx(tx)

	usr := st.User
	us.Apply(&usr)
	if us.Password.Valid && us.Password.String != "" {
		if err = usr.SetPassword(us.Password.String); err != nil {
			return Student{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.usrRepo.UpdateUser(ctx, usr, core.Execs(tx)...); err != nil {
		return Student{}, err
	}

	if us.ClassID.Valid {
		if us.ClassID.Int == 0 {
			st.ClassID = null.Int{}
		} else {
			st.ClassID = us.ClassID
		}
		if st, err = svc.repo.UpdateStudent(ctx, st, core.Execs(tx)...); err != nil {
			return Student{}, err
		}
	}
	if err = core.CommitTx(tx); err != nil {
		return Student{}, err
	}
	st.User = usr
	return st, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetStudentByID(ctx, id); err != nil {
		return err
	}
	return svc.usrSvc.Delete(ctx, id)
}

// checkClass verifies a class assignment. A zero or absent ClassID means
// unassigned and needs no row.
func (svc *service) checkClass(ctx context.Context, classID null.Int) error {
	if !classID.Valid || classID.Int == 0 {
		return nil
	}
	ok, err := svc.clsRepo.ClassExists(ctx, classID.Int)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClassNotFound
	}
	return nil
}
