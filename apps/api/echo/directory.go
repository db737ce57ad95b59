package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/cohort"
)

type directoryApi struct {
	svc      *cohort.Service
	validate *validator.Validate
}

func registerDirectoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := directoryApi{
		svc:      deps.Cohorts,
		validate: deps.Validate,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())

	ag.POST("/cohorts", api.createCohort)
	ag.GET("/cohorts", api.queryCohorts)
	ag.GET("/cohorts/:id", api.retrieveCohort)
	ag.GET("/cohorts/:id/members", api.queryMembers)

	ag.POST("/courses", api.createCourse)
	ag.GET("/courses", api.queryCourses)
	ag.GET("/courses/:id", api.retrieveCourse)
	ag.PUT("/courses/:id", api.updateCourse)
}

// Cohorts

func (api *directoryApi) createCohort(ctx echo.Context) error {
	var data cohort.NewCohort
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCohort")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCohort(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating cohort")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *directoryApi) queryCohorts(ctx echo.Context) error {
	cohorts, err := api.svc.QueryCohorts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying cohorts")
	}
	if cohorts == nil {
		cohorts = []cohort.Cohort{}
	}
	return ctx.JSON(http.StatusOK, cohorts)
}

func (api *directoryApi) retrieveCohort(ctx echo.Context) error {
	c, err := api.svc.GetCohort(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding cohort by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *directoryApi) queryMembers(ctx echo.Context) error {
	c, err := api.svc.GetCohort(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding cohort by ID")
	}
	members, err := api.svc.Members(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	if members == nil {
		members = []cohort.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

// Courses

func (api *directoryApi) createCourse(ctx echo.Context) error {
	var data cohort.CourseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *directoryApi) queryCourses(ctx echo.Context) error {
	var filter cohort.CourseFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []cohort.Course{})
	}

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []cohort.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *directoryApi) retrieveCourse(ctx echo.Context) error {
	c, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *directoryApi) updateCourse(ctx echo.Context) error {
	var data cohort.CourseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}
