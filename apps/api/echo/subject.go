package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
)

type subjectApi struct {
	svc subject.Service
}

func registerSubjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := subjectApi{svc: opts.SubjectSvc}

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.create, adminMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/teachers", api.queryTeachers)
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) query(ctx echo.Context) error {
	subjects, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	sub, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) queryTeachers(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	teachers, err := api.svc.Teachers(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying subject teachers")
	}
	if teachers == nil {
		teachers = []teacher.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *subjectApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}
