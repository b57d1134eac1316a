package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
)

type dbArticle struct {
	ID         int       `db:"id"`
	AuthorID   int       `db:"author_id"`
	Title      string    `db:"title"`
	Content    string    `db:"content"`
	Published  bool      `db:"published"`
	CreatedAt  time.Time `db:"created_at"`
	LastEdited time.Time `db:"last_edited"`
}

func (a dbArticle) toArticle() article.Article {
	return article.Article{
		ID:         a.ID,
		AuthorID:   a.AuthorID,
		Title:      a.Title,
		Content:    a.Content,
		Published:  a.Published,
		CreatedAt:  a.CreatedAt,
		LastEdited: a.LastEdited,
	}
}

func toArticles(rows []dbArticle) []article.Article {
	articles := make([]article.Article, 0, len(rows))
	for _, a := range rows {
		articles = append(articles, a.toArticle())
	}
	return articles
}

const articleColumns = `id, author_id, title, content, published, created_at, last_edited`

type articleRepository struct {
	exec core.DBExecutor
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(exec core.DBExecutor) *articleRepository {
	return &articleRepository{exec: exec}
}

func (repo articleRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo articleRepository) CreateArticle(ctx context.Context, art article.Article, exec ...core.DBExecutor) (article.Article, error) {
	q := `
	INSERT INTO article (author_id, title, content, published, created_at, last_edited)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &art.ID, q,
		art.AuthorID, art.Title, art.Content, art.Published, art.CreatedAt, art.LastEdited)
	if err != nil {
		return article.Article{}, errors.Wrap(err, "inserting article")
	}
	return art, nil
}

func (repo articleRepository) GetArticleByID(ctx context.Context, id int, exec ...core.DBExecutor) (article.Article, error) {
	var row dbArticle
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+articleColumns+` FROM article WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, errors.Wrap(err, "finding article by ID")
	}
	return row.toArticle(), nil
}

func (repo articleRepository) QueryAllArticles(ctx context.Context, exec ...core.DBExecutor) ([]article.Article, error) {
	var rows []dbArticle
	q := `SELECT ` + articleColumns + ` FROM article ORDER BY created_at DESC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying articles")
	}
	return toArticles(rows), nil
}

func (repo articleRepository) QueryArticlesByAuthorID(ctx context.Context, authorID int, exec ...core.DBExecutor) ([]article.Article, error) {
	var rows []dbArticle
	q := `SELECT ` + articleColumns + ` FROM article WHERE author_id = $1 ORDER BY created_at DESC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, authorID); err != nil {
		return nil, errors.Wrap(err, "querying articles by author")
	}
	return toArticles(rows), nil
}

func (repo articleRepository) QueryPublishedArticles(ctx context.Context, exec ...core.DBExecutor) ([]article.Article, error) {
	var rows []dbArticle
	q := `SELECT ` + articleColumns + ` FROM article WHERE published ORDER BY created_at DESC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying published articles")
	}
	return toArticles(rows), nil
}

func (repo articleRepository) UpdateArticle(ctx context.Context, art article.Article, exec ...core.DBExecutor) (article.Article, error) {
	q := `UPDATE article SET title = $1, content = $2, published = $3, last_edited = $4 WHERE id = $5`
	res, err := repo.getExec(exec).ExecContext(ctx, q, art.Title, art.Content, art.Published, art.LastEdited, art.ID)
	if err != nil {
		return article.Article{}, errors.Wrap(err, "updating article")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return article.Article{}, article.ErrNotFound
	}
	return art, nil
}

func (repo articleRepository) DeleteArticle(ctx context.Context, id int, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM article WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return nil
}
