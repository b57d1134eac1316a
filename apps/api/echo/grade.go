package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/user"
)

const defaultRecentGradesLimit = 10

type gradeApi struct {
	svc grade.Service
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := gradeApi{svc: opts.GradeSvc}

	gg := g.Group("/grades", jwt)
	gg.POST("", api.create, rolesMiddleware(user.RoleTeacher))
	gg.GET("", api.query, rolesMiddleware(user.RoleTeacher))
	gg.GET("/recent", api.queryRecent, rolesMiddleware(user.RoleTeacher))
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, rolesMiddleware(user.RoleTeacher))
	gg.DELETE("/:id", api.destroy, adminMiddleware())

	// student-scoped queries; students reach their own marks only
	sg := g.Group("/students/:id", jwt, selfOrRolesMiddleware(user.RoleTeacher))
	sg.GET("/grades", api.queryByStudent)
	sg.GET("/grades/average", api.studentAverage)
	sg.GET("/grades/summary", api.studentSummary)
	sg.GET("/subjects/:subjectID/grades", api.queryByStudentAndSubject)

	g.GET("/subjects/:id/grades", api.querySubjectGrades, jwt, rolesMiddleware(user.RoleTeacher))
	g.GET("/subjects/:id/grades/average", api.subjectAverage, jwt, rolesMiddleware(user.RoleTeacher))
	g.GET("/teachers/:id/grades", api.queryByTeacher, jwt, selfOrRolesMiddleware())
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// teachers record marks under their own name
	if !claims.IsAdmin && data.TeacherID != claims.UserID() {
		return errHttpForbidden
	}

	grd, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *gradeApi) query(ctx echo.Context) error {
	grades, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func (api *gradeApi) queryRecent(ctx echo.Context) error {
	limit := defaultRecentGradesLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	grades, err := api.svc.QueryRecent(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying recent grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	grd, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students see their own marks only
	if claims.IsStudent && grd.StudentID != claims.UserID() {
		return errHttpNotFound
	}
	if claims.IsWriter && !claims.IsAdmin {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	grd, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// teachers amend their own marks only
	if !claims.IsAdmin && grd.TeacherID != claims.UserID() {
		return errHttpForbidden
	}

	grd, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) queryByStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func (api *gradeApi) queryByStudentAndSubject(ctx echo.Context) error {
	id, subjectID, err := intParams(ctx, "id", "subjectID")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryByStudentAndSubject(ctx.Request().Context(), id, subjectID)
	if err != nil {
		return errors.Wrap(err, "querying student subject grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func (api *gradeApi) studentAverage(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	avg, err := api.svc.AverageByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "averaging student grades")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"average": avg})
}

func (api *gradeApi) studentSummary(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	summary, err := api.svc.StudentSubjectSummary(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "summarizing student grades")
	}
	if summary == nil {
		summary = []grade.SubjectSummary{}
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *gradeApi) querySubjectGrades(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryBySubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying subject grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func (api *gradeApi) subjectAverage(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	avg, err := api.svc.AverageBySubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "averaging subject grades")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"average": avg})
}

func (api *gradeApi) queryByTeacher(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryByTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying teacher grades")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(grades))
}

func emptyIfNil(grades []grade.Grade) []grade.Grade {
	if grades == nil {
		return []grade.Grade{}
	}
	return grades
}
