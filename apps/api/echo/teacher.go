package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
)

type teacherApi struct {
	svc    teacher.Service
	clsSvc class.Service
	usrSvc user.Service
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := teacherApi{
		svc:    opts.TeacherSvc,
		clsSvc: opts.ClassSvc,
		usrSvc: opts.UserSvc,
	}

	tg := g.Group("/teachers", jwt)
	tg.POST("/register", api.create, adminMiddleware())
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.GET("/:id/classes", api.queryClasses)
	tg.PUT("/:id", api.update, selfOrRolesMiddleware())
	tg.DELETE("/:id", api.destroy, adminMiddleware())

	// association endpoints
	tg.PUT("/:id/subjects/:subjectID", api.addSubject, adminMiddleware())
	tg.DELETE("/:id/subjects/:subjectID", api.removeSubject, adminMiddleware())
	tg.PUT("/:id/classes/:classID", api.addClass, adminMiddleware())
	tg.DELETE("/:id/classes/:classID", api.removeClass, adminMiddleware())
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.usrSvc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) query(ctx echo.Context) error {
	teachers, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []teacher.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding teacher by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) queryClasses(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	classes, err := api.clsSvc.QueryByTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying teacher classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *teacherApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding teacher by ID")
	}

	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		// associations can only be changed by admin
		if data.SubjectIDs != nil || data.ClassIDs != nil {
			return errHttpForbidden
		}
		if data.Activated.Valid || data.Username.Valid || data.Email.Valid {
			return errHttpForbidden
		}
	}

	if err = data.Validate(ctx.Request().Context(), t, api.usrSvc); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) addSubject(ctx echo.Context) error {
	id, subjectID, err := intParams(ctx, "id", "subjectID")
	if err != nil {
		return err
	}
	t, err := api.svc.AddSubject(ctx.Request().Context(), id, subjectID)
	if err != nil {
		return errors.Wrap(err, "adding subject to teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) removeSubject(ctx echo.Context) error {
	id, subjectID, err := intParams(ctx, "id", "subjectID")
	if err != nil {
		return err
	}
	t, err := api.svc.RemoveSubject(ctx.Request().Context(), id, subjectID)
	if err != nil {
		return errors.Wrap(err, "removing subject from teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) addClass(ctx echo.Context) error {
	id, classID, err := intParams(ctx, "id", "classID")
	if err != nil {
		return err
	}
	t, err := api.svc.AddClass(ctx.Request().Context(), id, classID)
	if err != nil {
		return errors.Wrap(err, "adding class to teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) removeClass(ctx echo.Context) error {
	id, classID, err := intParams(ctx, "id", "classID")
	if err != nil {
		return err
	}
	t, err := api.svc.RemoveClass(ctx.Request().Context(), id, classID)
	if err != nil {
		return errors.Wrap(err, "removing class from teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}
