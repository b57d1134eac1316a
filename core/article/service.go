package article

import (
	"context"
	"errors"
	"time"

	"github.com/tkimaro/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("article not found")
	ErrAuthorNotFound = errors.New("author not found")
)

// nowFunc facilitates mocking in tests
var nowFunc = time.Now

type (
	// AuthorRepository is the slice of the writer store this package
	// needs. Declared here because the writer package depends on article
	// for its authored listings.
	AuthorRepository interface {
		WriterExists(ctx context.Context, userID int, exec ...core.DBExecutor) (bool, error)
	}

	Repository interface {
		CreateArticle(ctx context.Context, art Article, exec ...core.DBExecutor) (Article, error)
		GetArticleByID(ctx context.Context, id int, exec ...core.DBExecutor) (Article, error)
		QueryAllArticles(ctx context.Context, exec ...core.DBExecutor) ([]Article, error)
		QueryArticlesByAuthorID(ctx context.Context, authorID int, exec ...core.DBExecutor) ([]Article, error)
		QueryPublishedArticles(ctx context.Context, exec ...core.DBExecutor) ([]Article, error)
		UpdateArticle(ctx context.Context, art Article, exec ...core.DBExecutor) (Article, error)
		DeleteArticle(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, na NewArticle) (Article, error)
		GetByID(ctx context.Context, id int) (Article, error)
		QueryAll(ctx context.Context) ([]Article, error)
		QueryByAuthor(ctx context.Context, authorID int) ([]Article, error)
		QueryPublished(ctx context.Context) ([]Article, error)
		Update(ctx context.Context, id int, ua UpdateArticle) (Article, error)
		// Delete removes the article row. Articles are the only entity
		// that is hard-deleted; there is no account attached to them.
		Delete(ctx context.Context, id int) error
	}

	service struct {
		repo    Repository
		authors AuthorRepository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, authors AuthorRepository) Service {
	return &service{repo: repo, authors: authors}
}

// Create validates the author reference before inserting.
func (svc *service) Create(ctx context.Context, na NewArticle) (Article, error) {
	ok, err := svc.authors.WriterExists(ctx, na.AuthorID)
	if err != nil {
		return Article{}, err
	}
	if !ok {
		return Article{}, ErrAuthorNotFound
	}

	now := nowFunc().UTC()
	art := Article{
		AuthorID:   na.AuthorID,
		Title:      na.Title,
		Content:    na.Content,
		Published:  na.Published,
		CreatedAt:  now,
		LastEdited: now,
	}
	return svc.repo.CreateArticle(ctx, art)
}

func (svc *service) GetByID(ctx context.Context, id int) (Article, error) {
	return svc.repo.GetArticleByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Article, error) {
	return svc.repo.QueryAllArticles(ctx)
}

func (svc *service) QueryByAuthor(ctx context.Context, authorID int) ([]Article, error) {
	return svc.repo.QueryArticlesByAuthorID(ctx, authorID)
}

func (svc *service) QueryPublished(ctx context.Context) ([]Article, error) {
	return svc.repo.QueryPublishedArticles(ctx)
}

// Update applies the patch and bumps LastEdited. CreatedAt is immutable.
func (svc *service) Update(ctx context.Context, id int, ua UpdateArticle) (Article, error) {
	art, err := svc.repo.GetArticleByID(ctx, id)
	if err != nil {
		return Article{}, err
	}
	ua.Apply(&art)
	art.LastEdited = nowFunc().UTC()
	return svc.repo.UpdateArticle(ctx, art)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetArticleByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteArticle(ctx, id)
}
