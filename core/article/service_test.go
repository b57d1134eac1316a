package article_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
	emailsvc "github.com/tkimaro/shule/services/email"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

// setup returns the service and the user ID of a writer to attribute
// articles to.
func setup(t *testing.T) (article.Service, int) {
	t.Helper()
	emailsvc.ResetSentMessages()
	conf := core.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	wrtRepo := inmemdb.NewWriterRepository(db)
	artRepo := inmemdb.NewArticleRepository(db)
	usrSvc := user.NewService(conf, nil, usrRepo, emailsvc.NewConsoleServiceMock(conf))

	w, err := writer.NewService(nil, wrtRepo, artRepo, usrRepo, usrSvc).
		Create(context.Background(), writer.NewWriter{NewUser: user.NewUser{
			Username:        "mwandishi",
			Password:        "LocalH0st",
			PasswordConfirm: "LocalH0st",
			Role:            user.RoleWriter,
			Email:           "mwandishi@test.cd",
			FirstName:       "Jina",
			LastName:        "Langu",
			BirthDate:       "1990-07-22",
		}})
	if err != nil {
		t.Fatalf("writers.Create() failed, %v", err)
	}
	return article.NewService(artRepo, wrtRepo), w.UserID
}

func TestService_Create(t *testing.T) {
	svc, authorID := setup(t)

	art, err := svc.Create(context.Background(), article.NewArticle{
		AuthorID: authorID,
		Title:    "Term Opening",
		Content:  "Karibuni wote.",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if art.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if art.Published {
		t.Error("new article is published by default")
	}
	if art.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if !art.LastEdited.Equal(art.CreatedAt) {
		t.Errorf("LastEdited = %v, want equal to CreatedAt %v", art.LastEdited, art.CreatedAt)
	}
}

func TestService_Create_unknownAuthor(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Create(context.Background(), article.NewArticle{
		AuthorID: 404,
		Title:    "Ghost Writer",
		Content:  "...",
	})
	if err != article.ErrAuthorNotFound {
		t.Errorf("Create() error = %v, want ErrAuthorNotFound", err)
	}
}

func TestService_Update(t *testing.T) {
	svc, authorID := setup(t)
	ctx := context.Background()

	art, err := svc.Create(ctx, article.NewArticle{AuthorID: authorID, Title: "Term Opening", Content: "..."})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	time.Sleep(time.Millisecond)
	updated, err := svc.Update(ctx, art.ID, article.UpdateArticle{
		Content:   null.StringFrom("Karibuni tena."),
		Published: null.BoolFrom(true),
	})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if updated.Content != "Karibuni tena." {
		t.Errorf("Content = %q", updated.Content)
	}
	if !updated.Published {
		t.Error("Published not set")
	}
	// title untouched
	if updated.Title != art.Title {
		t.Errorf("Title changed to %q", updated.Title)
	}
	// CreatedAt is immutable; LastEdited is bumped
	if !updated.CreatedAt.Equal(art.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", art.CreatedAt, updated.CreatedAt)
	}
	if !updated.LastEdited.After(art.LastEdited) {
		t.Errorf("LastEdited = %v, want after %v", updated.LastEdited, art.LastEdited)
	}
}

func TestService_QueryPublished(t *testing.T) {
	svc, authorID := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, article.NewArticle{AuthorID: authorID, Title: "Draft", Content: "..."}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	pub, err := svc.Create(ctx, article.NewArticle{AuthorID: authorID, Title: "Live", Content: "...", Published: true})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	articles, err := svc.QueryPublished(ctx)
	if err != nil {
		t.Fatalf("QueryPublished() failed, %v", err)
	}
	if len(articles) != 1 || articles[0].ID != pub.ID {
		t.Errorf("QueryPublished() = %v, want [%d]", articles, pub.ID)
	}
}

func TestService_Delete_hardDeletes(t *testing.T) {
	svc, authorID := setup(t)
	ctx := context.Background()

	art, err := svc.Create(ctx, article.NewArticle{AuthorID: authorID, Title: "Term Opening", Content: "..."})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if err = svc.Delete(ctx, art.ID); err != nil {
		t.Fatalf("Delete() failed, %v", err)
	}
	if _, err = svc.GetByID(ctx, art.ID); err != article.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
