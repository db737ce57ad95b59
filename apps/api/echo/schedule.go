package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/user"
	calsvc "github.com/trezcool/darasa/services/calendar"
)

const calendarMIME = "text/calendar; charset=utf-8"

type scheduleApi struct {
	users    *user.Service
	svc      *schedule.Service
	calendar *calsvc.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{
		users:    deps.Users,
		svc:      deps.Schedule,
		calendar: deps.Calendar,
	}

	sg := g.Group("/schedule", jwt)
	sg.GET("", api.query)
	sg.GET("/calendar.ics", api.feed)
}

type ScheduleResponse struct {
	View        schedule.View         `json:"view"`
	Date        string                `json:"date"`
	From        string                `json:"from"`
	To          string                `json:"to"` // exclusive
	Occurrences []schedule.Occurrence `json:"occurrences"`
}

// query returns the occurrences visible to the caller within the `view` window containing `date`.
func (api *scheduleApi) query(ctx echo.Context) error {
	view, err := schedule.ParseView(ctx.QueryParam("view"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "view", Error: err.Error()})
	}
	date, err := bindDate(ctx, "date", core.Today())
	if err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	w := schedule.WindowFor(view, date)
	occs, err := api.svc.ForWindow(ctx.Request().Context(), usr, w)
	if err != nil {
		return errors.Wrap(err, "building schedule")
	}
	if occs == nil {
		occs = []schedule.Occurrence{}
	}

	return ctx.JSON(http.StatusOK, ScheduleResponse{
		View:        view,
		Date:        core.FormatDate(date),
		From:        core.FormatDate(w.From),
		To:          core.FormatDate(w.To),
		Occurrences: occs,
	})
}

// feed returns the whole semester of the caller as an iCalendar attachment.
func (api *scheduleApi) feed(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	occs, err := api.svc.Timeline(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "building schedule")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+calsvc.Filename(core.Today())+`"`)
	return ctx.Blob(http.StatusOK, calendarMIME, []byte(api.calendar.Feed(usr.Name, occs)))
}
