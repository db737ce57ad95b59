package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=name,-created_at`.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindDate reads the "YYYY-MM-DD" query param `name`, defaulting to def when absent.
func bindDate(ctx echo.Context, name string, def time.Time) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return def, nil
	}
	date, err := core.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a date formatted as YYYY-MM-DD"})
	}
	return date, nil
}

// bindRange reads the `from` & `to` query params. Both default to the week starting today.
func bindRange(ctx echo.Context) (from, to time.Time, err error) {
	today := core.Today()
	if from, err = bindDate(ctx, "from", today); err != nil {
		return
	}
	if to, err = bindDate(ctx, "to", from.AddDate(0, 0, 6)); err != nil {
		return
	}
	if to.Before(from) {
		err = core.NewValidationError(nil, core.FieldError{Field: "to", Error: "end must be after start"})
	}
	return
}
