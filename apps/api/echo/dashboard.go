package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/user"
)

type dashboardApi struct {
	users   *user.Service
	builder *dashboard.Builder
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		users:   deps.Users,
		builder: deps.Dashboard,
	}

	dg := g.Group("/dashboard", jwt)
	dg.GET("", api.student, studentMiddleware())
	dg.GET("/faculty", api.faculty, teacherMiddleware())
}

func (api *dashboardApi) student(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	summary, err := api.builder.Student(ctx.Request().Context(), usr, core.Today())
	if err != nil {
		return errors.Wrap(err, "building student summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *dashboardApi) faculty(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	courses, err := api.builder.Faculty(ctx.Request().Context(), usr, core.Today())
	if err != nil {
		return errors.Wrap(err, "building faculty view")
	}
	if courses == nil {
		courses = []dashboard.CourseSupervision{}
	}
	return ctx.JSON(http.StatusOK, courses)
}
