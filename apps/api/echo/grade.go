package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/grade"
)

type gradeApi struct {
	grades   *grade.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gradeApi{
		grades:   deps.Grades,
		validate: deps.Validate,
	}

	gg := g.Group("/grades", jwt)
	gg.GET("/me", api.me, studentMiddleware())

	// course instructor endpoints
	isTeacher := teacherMiddleware()
	gg.GET("/form", api.form, isTeacher)
	gg.PUT("/form", api.submit, isTeacher)
}

func (api *gradeApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	records, err := api.grades.Transcript(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, records)
}

// form returns the roster of `course_id` with the current grades.
func (api *gradeApi) form(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	form, err := api.grades.Form(ctx.Request().Context(), claims.Subject, ctx.QueryParam("course_id"))
	if err != nil {
		return errors.Wrap(err, "pre-filling grade form")
	}
	return ctx.JSON(http.StatusOK, form)
}

// submit upserts the grades of the submitted course. `course_id` in the query string wins over the body.
func (api *gradeApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data grade.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to grade.Submission")
	}
	if id := ctx.QueryParam("course_id"); id != "" {
		data.CourseID = id
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.grades.Submit(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "grading students")
	}
	return ctx.JSON(http.StatusOK, records)
}
