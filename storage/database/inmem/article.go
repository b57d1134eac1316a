package inmemdb

import (
	"context"
	"sort"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
)

type articleRepository struct {
	db *DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *DB) *articleRepository {
	return &articleRepository{db: db}
}

// query returns matching articles newest first. Callers hold the lock.
func (repo *articleRepository) query(match func(article.Article) bool) []article.Article {
	articles := make([]article.Article, 0, len(repo.db.articles))
	for _, art := range repo.db.articles {
		if match != nil && !match(*art) {
			continue
		}
		articles = append(articles, *art)
	}
	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].CreatedAt.Equal(articles[j].CreatedAt) {
			return articles[i].CreatedAt.After(articles[j].CreatedAt)
		}
		return articles[i].ID > articles[j].ID
	})
	return articles
}

func (repo *articleRepository) CreateArticle(ctx context.Context, art article.Article, exec ...core.DBExecutor) (article.Article, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.articlePK++
	art.ID = repo.db.articlePK
	repo.db.articles[art.ID] = &art
	return art, nil
}

func (repo *articleRepository) GetArticleByID(ctx context.Context, id int, exec ...core.DBExecutor) (article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if art, ok := repo.db.articles[id]; ok {
		return *art, nil
	}
	return article.Article{}, article.ErrNotFound
}

func (repo *articleRepository) QueryAllArticles(ctx context.Context, exec ...core.DBExecutor) ([]article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil), nil
}

func (repo *articleRepository) QueryArticlesByAuthorID(ctx context.Context, authorID int, exec ...core.DBExecutor) ([]article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(art article.Article) bool { return art.AuthorID == authorID }), nil
}

func (repo *articleRepository) QueryPublishedArticles(ctx context.Context, exec ...core.DBExecutor) ([]article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(art article.Article) bool { return art.Published }), nil
}

func (repo *articleRepository) UpdateArticle(ctx context.Context, art article.Article, exec ...core.DBExecutor) (article.Article, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.articles[art.ID]; !ok {
		return article.Article{}, article.ErrNotFound
	}
	repo.db.articles[art.ID] = &art
	return art, nil
}

func (repo *articleRepository) DeleteArticle(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.articles, id)
	return nil
}
