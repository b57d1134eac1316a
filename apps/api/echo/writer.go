package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
)

type writerApi struct {
	svc    writer.Service
	usrSvc user.Service
}

func registerWriterAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := writerApi{
		svc:    opts.WriterSvc,
		usrSvc: opts.UserSvc,
	}

	wg := g.Group("/writers", jwt)
	wg.POST("/register", api.create, adminMiddleware())
	wg.GET("", api.query, adminMiddleware())

	dg := wg.Group("/:id", selfOrRolesMiddleware())
	dg.GET("", api.retrieve)
	dg.GET("/articles", api.queryArticles)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *writerApi) create(ctx echo.Context) error {
	var data writer.NewWriter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWriter")
	}
	if err := data.Validate(ctx.Request().Context(), api.usrSvc); err != nil {
		return err
	}

	w, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating writer")
	}
	return ctx.JSON(http.StatusCreated, w)
}

func (api *writerApi) query(ctx echo.Context) error {
	writers, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying writers")
	}
	if writers == nil {
		writers = []writer.Writer{}
	}
	return ctx.JSON(http.StatusOK, writers)
}

func (api *writerApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	w, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding writer by ID")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *writerApi) queryArticles(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	articles, err := api.svc.AuthoredArticles(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying authored articles")
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, articles)
}

func (api *writerApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	w, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding writer by ID")
	}

	var data writer.UpdateWriter
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWriter")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		if data.Activated.Valid || data.Username.Valid || data.Email.Valid {
			return errHttpForbidden
		}
	}

	if err = data.Validate(ctx.Request().Context(), w, api.usrSvc); err != nil {
		return err
	}

	w, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating writer")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *writerApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting writer")
	}
	return ctx.NoContent(http.StatusNoContent)
}
