package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/monitor"
	reportsvc "github.com/trezcool/darasa/services/report"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceApi struct {
	cohorts  *cohort.Service
	monitor  *monitor.Service
	ledger   *attendance.Ledger
	reports  *reportsvc.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		cohorts:  deps.Cohorts,
		monitor:  deps.Monitor,
		ledger:   deps.Attendance,
		reports:  deps.Reports,
		validate: deps.Validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("/me", api.me)
	ag.GET("/export", api.export, facultyMiddleware())

	// monitor endpoints
	isMonitor := monitorMiddleware(deps.Gate)
	ag.GET("/form", api.form, isMonitor)
	ag.POST("", api.record, isMonitor)
}

func (api *attendanceApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stats, err := api.ledger.GetByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting attendance")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// form returns the attendance roster of `course_id` on `date` (today by default), pre-filled.
func (api *attendanceApi) form(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	date, err := bindDate(ctx, "date", core.Today())
	if err != nil {
		return err
	}

	form, err := api.monitor.AttendanceForm(ctx.Request().Context(), claims.Subject, ctx.QueryParam("course_id"), date)
	if err != nil {
		return errors.Wrap(err, "pre-filling attendance form")
	}
	return ctx.JSON(http.StatusOK, form)
}

func (api *attendanceApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data monitor.AttendanceSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceSubmission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.monitor.RecordAttendance(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

// export sends the attendance workbook of `course_id` between `from` (semester start by default)
// and `to` (today by default). Teachers can only export the courses they teach.
func (api *attendanceApi) export(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	course, err := api.cohorts.GetCourse(ctx.Request().Context(), core.CleanString(ctx.QueryParam("course_id")))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if !claims.IsAdmin && course.InstructorID != claims.Subject {
		return errHttpForbidden
	}

	today := core.Today()
	defFrom := today
	if course.StartDate != nil && course.StartDate.Before(today) {
		defFrom = core.Midnight(*course.StartDate)
	}
	from, err := bindDate(ctx, "from", defFrom)
	if err != nil {
		return err
	}
	defTo := today
	if defTo.Before(from) {
		defTo = from
	}
	to, err := bindDate(ctx, "to", defTo)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "end must be after start"})
	}

	buf, filename, err := api.reports.ExportAttendance(ctx.Request().Context(), course.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "exporting attendance")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
