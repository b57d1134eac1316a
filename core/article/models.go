package article

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
)

// Article is a piece of content authored by a Writer. CreatedAt is set once
// at creation; LastEdited starts equal to CreatedAt and is bumped on every
// content update.
type Article struct {
	ID         int       `json:"id"`
	AuthorID   int       `json:"author_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`  // UTC
	LastEdited time.Time `json:"last_edited"` // UTC
}

type NewArticle struct {
	AuthorID  int    `json:"author_id" validate:"required"`
	Title     string `json:"title" validate:"required,max=255"`
	Content   string `json:"content" validate:"required"`
	Published bool   `json:"published"`
}

func (na *NewArticle) Validate() error {
	na.Title = core.CleanString(na.Title)
	return core.Validate.Struct(na)
}

// UpdateArticle patches an Article. Absent (invalid) fields stay untouched.
type UpdateArticle struct {
	Title     null.String `json:"title" validate:"omitempty,max=255"`
	Content   null.String `json:"content"`
	Published null.Bool   `json:"published"`
}

func (ua *UpdateArticle) Validate() error {
	if ua.Title.Valid {
		ua.Title = null.StringFrom(core.CleanString(ua.Title.String))
	}
	return core.Validate.Struct(ua)
}

func (ua UpdateArticle) Apply(art *Article) {
	if ua.Title.Valid {
		art.Title = ua.Title.String
	}
	if ua.Content.Valid {
		art.Content = ua.Content.String
	}
	if ua.Published.Valid {
		art.Published = ua.Published.Bool
	}
}
