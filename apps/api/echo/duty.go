package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
	"github.com/trezcool/darasa/core/monitor"
	"github.com/trezcool/darasa/core/user"
)

type dutyApi struct {
	users    *user.Service
	cohorts  *cohort.Service
	monitor  *monitor.Service
	ledger   *duty.Ledger
	validate *validator.Validate
}

func registerDutyAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dutyApi{
		users:    deps.Users,
		cohorts:  deps.Cohorts,
		monitor:  deps.Monitor,
		ledger:   deps.Duty,
		validate: deps.Validate,
	}

	dg := g.Group("/duties", jwt)
	dg.GET("", api.query, studentMiddleware())

	// monitor endpoints
	isMonitor := monitorMiddleware(deps.Gate)
	dg.GET("/form", api.form, isMonitor)
	dg.PUT("", api.assign, isMonitor)
}

// query returns the duty roster of the caller's cohort between `from` & `to`.
func (api *dutyApi) query(ctx echo.Context) error {
	from, to, err := bindRange(ctx)
	if err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.CohortID == "" {
		return ctx.JSON(http.StatusOK, []duty.Record{})
	}

	recs, err := api.ledger.GetForRange(ctx.Request().Context(), usr.CohortID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying duties")
	}
	members, err := api.cohorts.Members(ctx.Request().Context(), usr.CohortID)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	out := make([]duty.Record, 0, len(recs))
	for _, rec := range recs {
		rec.AssigneeNames = make([]string, 0, len(rec.AssigneeIDs))
		for _, id := range rec.AssigneeIDs {
			rec.AssigneeNames = append(rec.AssigneeNames, names[id])
		}
		out = append(out, rec)
	}
	return ctx.JSON(http.StatusOK, out)
}

// form returns the duty form of the monitor's cohort on `date` (today by default), pre-filled.
func (api *dutyApi) form(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	date, err := bindDate(ctx, "date", core.Today())
	if err != nil {
		return err
	}

	form, err := api.monitor.DutyForm(ctx.Request().Context(), claims.Subject, date)
	if err != nil {
		return errors.Wrap(err, "pre-filling duty form")
	}
	return ctx.JSON(http.StatusOK, form)
}

func (api *dutyApi) assign(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data monitor.DutySubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DutySubmission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.monitor.AssignDuty(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "assigning duty")
	}
	return ctx.JSON(http.StatusOK, rec)
}
