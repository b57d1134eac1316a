package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/user"
)

type articleApi struct {
	svc article.Service
}

func registerArticleAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := articleApi{svc: opts.ArticleSvc}

	ag := g.Group("/articles")

	// published articles are public
	ag.GET("/published", api.queryPublished)

	// authed endpoints
	jg := ag.Group("", jwt)
	jg.POST("", api.create, rolesMiddleware(user.RoleWriter))
	jg.GET("", api.query, adminMiddleware())
	jg.GET("/:id", api.retrieve)
	jg.PUT("/:id", api.update, rolesMiddleware(user.RoleWriter))
	jg.DELETE("/:id", api.destroy, rolesMiddleware(user.RoleWriter))
}

func (api *articleApi) create(ctx echo.Context) error {
	var data article.NewArticle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewArticle")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// writers publish under their own name; admins must name an author
	if !claims.IsAdmin {
		data.AuthorID = claims.UserID()
	} else if data.AuthorID == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "author_id", Error: "this field is required"})
	}

	if err = data.Validate(); err != nil {
		return err
	}

	art, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating article")
	}
	return ctx.JSON(http.StatusCreated, art)
}

func (api *articleApi) query(ctx echo.Context) error {
	articles, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying articles")
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, articles)
}

func (api *articleApi) queryPublished(ctx echo.Context) error {
	articles, err := api.svc.QueryPublished(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying published articles")
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, articles)
}

func (api *articleApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	art, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding article by ID")
	}

	// drafts are visible to their author and admins only
	if !art.Published {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.IsAdmin && art.AuthorID != claims.UserID() {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *articleApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	art, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding article by ID")
	}
	if err = api.checkAuthorship(ctx, art); err != nil {
		return err
	}

	var data article.UpdateArticle
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateArticle")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	art, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating article")
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *articleApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	art, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding article by ID")
	}
	if err = api.checkAuthorship(ctx, art); err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkAuthorship only lets an article's author, or an admin, touch it.
func (api *articleApi) checkAuthorship(ctx echo.Context, art article.Article) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && art.AuthorID != claims.UserID() {
		return errHttpForbidden
	}
	return nil
}
