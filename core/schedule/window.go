package schedule

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// View is a calendar granularity.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

var ErrInvalidView = errors.New("view must be one of day, week or month")

func ParseView(s string) (View, error) {
	switch v := View(core.CleanString(s, true /* lower */)); v {
	case "":
		return ViewWeek, nil
	case ViewDay, ViewWeek, ViewMonth:
		return v, nil
	default:
		return "", ErrInvalidView
	}
}

// Window is the half-open date range [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// WindowFor returns the window of the given view containing anchor. Weeks start on Monday.
func WindowFor(view View, anchor time.Time) Window {
	day := core.Midnight(anchor)
	switch view {
	case ViewDay:
		return Window{From: day, To: day.AddDate(0, 0, 1)}
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{From: first, To: first.AddDate(0, 1, 0)}
	default:
		sinceMonday := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -sinceMonday)
		return Window{From: monday, To: monday.AddDate(0, 0, 7)}
	}
}

// Contains reports whether the calendar date of t is in the window.
func (w Window) Contains(t time.Time) bool {
	d := core.Midnight(t)
	return !d.Before(w.From) && d.Before(w.To)
}

// Filter keeps the occurrences starting within the window. occs is left untouched.
func (w Window) Filter(occs []Occurrence) []Occurrence {
	out := make([]Occurrence, 0, len(occs))
	for _, occ := range occs {
		if w.Contains(occ.Start) {
			out = append(out, occ)
		}
	}
	return out
}
