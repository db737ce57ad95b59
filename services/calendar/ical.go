package calsvc

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

// floatingLayout is the iCalendar DATE-TIME form without a zone: clients show the wall-clock time as-is.
const floatingLayout = "20060102T150405"

// Service renders occurrences as an iCalendar feed.
type Service struct {
	productID string
	appName   string
	domain    string
}

func NewService(conf *core.Config) *Service {
	productID := conf.Calendar.ProductID
	if productID == "" {
		productID = "-//" + conf.AppName + "//Schedule//EN"
	}
	return &Service{
		productID: productID,
		appName:   conf.AppName,
		domain:    strings.ToLower(strings.ReplaceAll(conf.AppName, " ", "")),
	}
}

// Feed returns the VCALENDAR named `name` holding one VEVENT per occurrence.
func (svc *Service) Feed(name string, occs []schedule.Occurrence) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(svc.productID)
	cal.SetXWRCalName(strings.TrimSpace(svc.appName + " " + name))

	stamp := core.NowFunc().UTC()
	for _, occ := range occs {
		event := cal.AddEvent(occ.ID + "@" + svc.domain)
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, occ.Start.Format(floatingLayout))
		event.SetProperty(ics.ComponentPropertyDtEnd, occ.End.Format(floatingLayout))
		event.SetSummary(occ.Title)
		if desc := description(occ); desc != "" {
			event.SetDescription(desc)
		}
		if occ.CourseCode != "" {
			event.SetProperty(ics.ComponentPropertyCategories, occ.CourseCode)
		}
	}
	return cal.Serialize()
}

func description(occ schedule.Occurrence) string {
	var lines []string
	if occ.CourseCode != "" {
		lines = append(lines, occ.CourseName+" ("+occ.CourseCode+")")
	}
	if occ.InstructorName != "" {
		lines = append(lines, "Instructor: "+occ.InstructorName)
	}
	if occ.CohortName != "" {
		lines = append(lines, "Cohort: "+occ.CohortName)
	}
	return strings.Join(lines, "\n")
}

// Filename returns the attachment name of a feed generated on `day`.
func Filename(day time.Time) string {
	return "schedule_" + core.FormatDate(day) + ".ics"
}
