package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
)

type classApi struct {
	svc class.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := classApi{svc: opts.ClassSvc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query)
	cg.GET("/level/:level", api.queryByLevel)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())

	cg.GET("/:id/students", api.queryStudents, rolesMiddleware(user.RoleTeacher))
	cg.GET("/:id/student-count", api.studentCount)
	cg.GET("/:id/teachers", api.queryTeachers)
	cg.PUT("/:id/teachers/:teacherID", api.addTeacher, adminMiddleware())
	cg.DELETE("/:id/teachers/:teacherID", api.removeTeacher, adminMiddleware())
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) queryByLevel(ctx echo.Context) error {
	level, err := intParam(ctx, "level")
	if err != nil {
		return err
	}
	classes, err := api.svc.QueryByLevel(ctx.Request().Context(), level)
	if err != nil {
		return errors.Wrap(err, "querying classes by level")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	cls, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data class.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) queryStudents(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	students, err := api.svc.Students(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *classApi) studentCount(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	count, err := api.svc.StudentCount(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "counting class students")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (api *classApi) queryTeachers(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	teachers, err := api.svc.Teachers(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying class teachers")
	}
	if teachers == nil {
		teachers = []teacher.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *classApi) addTeacher(ctx echo.Context) error {
	id, teacherID, err := intParams(ctx, "id", "teacherID")
	if err != nil {
		return err
	}
	if err = api.svc.AddTeacher(ctx.Request().Context(), id, teacherID); err != nil {
		return errors.Wrap(err, "adding teacher to class")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Teacher assigned to class."})
}

func (api *classApi) removeTeacher(ctx echo.Context) error {
	id, teacherID, err := intParams(ctx, "id", "teacherID")
	if err != nil {
		return err
	}
	if err = api.svc.RemoveTeacher(ctx.Request().Context(), id, teacherID); err != nil {
		return errors.Wrap(err, "removing teacher from class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
