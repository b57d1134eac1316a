package writer

import (
	"context"
	"errors"
	"time"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("writer not found")
	ErrProfileExists = errors.New("this user already has a writer profile")
)

type (
	Repository interface {
		CreateWriter(ctx context.Context, w Writer, exec ...core.DBExecutor) (Writer, error)
		GetWriterByID(ctx context.Context, userID int, exec ...core.DBExecutor) (Writer, error)
		WriterExists(ctx context.Context, userID int, exec ...core.DBExecutor) (bool, error)
		QueryAllWriters(ctx context.Context, exec ...core.DBExecutor) ([]Writer, error)
	}

	Service interface {
		Create(ctx context.Context, nw NewWriter) (Writer, error)
		GetByID(ctx context.Context, id int) (Writer, error)
		QueryAll(ctx context.Context) ([]Writer, error)
		Update(ctx context.Context, id int, uw UpdateWriter) (Writer, error)
		AuthoredArticles(ctx context.Context, id int) ([]article.Article, error)
		// Delete soft-deletes the underlying user account. Authored
		// articles stay attributed to the deactivated account.
		Delete(ctx context.Context, id int) error
	}

	service struct {
		db      core.DB
		repo    Repository
		artRepo article.Repository
		usrRepo user.Repository
		usrSvc  user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, artRepo article.Repository, usrRepo user.Repository, usrSvc user.Service) Service {
	return &service{
		db:      db,
		repo:    repo,
		artRepo: artRepo,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
}

// Create inserts the base User and the Writer profile as one atomic unit.
func (svc *service) Create(ctx context.Context, nw NewWriter) (Writer, error) {
	usr, err := user.BuildUser(nw.NewUser)
	if err != nil {
		return Writer{}, err
	}

	tx, err := core.BeginTx(ctx, svc.db)
	if err != nil {
		return Writer{}, err
	}
	defer core.RollbackTx(tx)

	usr, err = svc.usrRepo.CreateUser(ctx, usr, core.Execs(tx)...)
	if err != nil {
		return Writer{}, err
	}
	w, err := svc.repo.CreateWriter(ctx, Writer{UserID: usr.ID, User: usr}, core.Execs(tx)...)
	if err != nil {
		return Writer{}, err
	}
	if err = core.CommitTx(tx); err != nil {
		return Writer{}, err
	}
	return w, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Writer, error) {
	return svc.repo.GetWriterByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Writer, error) {
	return svc.repo.QueryAllWriters(ctx)
}

func (svc *service) Update(ctx context.Context, id int, uw UpdateWriter) (Writer, error) {
	w, err := svc.repo.GetWriterByID(ctx, id)
	if err != nil {
		return Writer{}, err
	}

	usr := w.User
	uw.Apply(&usr)
	if uw.Password.Valid && uw.Password.String != "" {
		if err = usr.SetPassword(uw.Password.String); err != nil {
			return Writer{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.usrRepo.UpdateUser(ctx, usr); err != nil {
		return Writer{}, err
	}
	w.User = usr
	return w, nil
}

func (svc *service) AuthoredArticles(ctx context.Context, id int) ([]article.Article, error) {
	if _, err := svc.repo.GetWriterByID(ctx, id); err != nil {
		return nil, err
	}
	return svc.artRepo.QueryArticlesByAuthorID(ctx, id)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetWriterByID(ctx, id); err != nil {
		return err
	}
	return svc.usrSvc.Delete(ctx, id)
}
