package reportsvc

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
)

const sheetName = "Attendance"

var statusLetters = map[attendance.Status]string{
	attendance.StatusPresent: "P",
	attendance.StatusAbsent:  "A",
	attendance.StatusLate:    "L",
}

type (
	Directory interface {
		GetCourse(ctx context.Context, id string) (cohort.Course, error)
		Members(ctx context.Context, cohortID string) ([]cohort.Member, error)
	}

	// Service builds spreadsheet reports out of the ledgers. It never writes to them.
	Service struct {
		dir        Directory
		attendance *attendance.Ledger
	}

	// AttendanceSheet is the data of one attendance workbook.
	AttendanceSheet struct {
		Course  cohort.Course
		From    time.Time
		To      time.Time
		Members []cohort.Member
		Records []attendance.Record
	}
)

func NewService(dir Directory, al *attendance.Ledger) *Service {
	return &Service{dir: dir, attendance: al}
}

// ExportAttendance returns the attendance workbook of a course between from & to (inclusive) and its file name.
func (svc *Service) ExportAttendance(ctx context.Context, courseID string, from, to time.Time) (*bytes.Buffer, string, error) {
	course, err := svc.dir.GetCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	members, err := svc.dir.Members(ctx, course.CohortID)
	if err != nil {
		return nil, "", errors.Wrap(err, "querying members")
	}
	records, err := svc.attendance.Query(ctx, attendance.QueryFilter{CourseID: course.ID, From: from, To: to})
	if err != nil {
		return nil, "", err
	}

	sheet := AttendanceSheet{Course: course, From: core.Midnight(from), To: core.Midnight(to), Members: members, Records: records}
	buf, err := sheet.Workbook()
	if err != nil {
		return nil, "", err
	}
	return buf, sheet.Filename(), nil
}

func (s AttendanceSheet) Filename() string {
	code := s.Course.Code
	if code == "" {
		code = s.Course.ID
	}
	return fmt.Sprintf("attendance_%s_%s_%s.xlsx", code, core.FormatDate(s.From), core.FormatDate(s.To))
}

type studentRow struct {
	id, name string
	byDate   map[string]attendance.Status
	stats    attendance.Stats
}

// rows returns one row per member, in roster order, then the former members found in the records.
func (s AttendanceSheet) rows() ([]*studentRow, []string) {
	var rows []*studentRow
	byID := make(map[string]*studentRow)
	for _, m := range s.Members {
		r := &studentRow{id: m.ID, name: m.Name, byDate: make(map[string]attendance.Status)}
		rows = append(rows, r)
		byID[m.ID] = r
	}

	var former []*studentRow
	dateSet := make(map[string]bool)
	for _, rec := range s.Records {
		r, ok := byID[rec.StudentID]
		if !ok {
			name := rec.StudentName
			if name == "" {
				name = rec.StudentID
			}
			r = &studentRow{id: rec.StudentID, name: name, byDate: make(map[string]attendance.Status)}
			former = append(former, r)
			byID[rec.StudentID] = r
		}
		date := core.FormatDate(rec.Date)
		r.byDate[date] = rec.Status
		dateSet[date] = true
		switch rec.Status {
		case attendance.StatusPresent:
			r.stats.Present++
		case attendance.StatusAbsent:
			r.stats.Absent++
		case attendance.StatusLate:
			r.stats.Late++
		}
	}
	sort.Slice(former, func(i, j int) bool { return former[i].name < former[j].name })

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return append(rows, former...), dates
}

// Workbook renders the sheet: one row per student, one column per recorded date, then the totals.
func (s AttendanceSheet) Workbook() (*bytes.Buffer, error) {
	rows, dates := s.rows()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(idx)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "deleting default sheet")
	}

	w := &sheetWriter{f: f}
	titleStyle := w.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	headerStyle := w.style(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	statusStyles := make(map[attendance.Status]int, len(statusLetters))
	for st, color := range map[attendance.Status]string{
		attendance.StatusPresent: "#C6EFCE",
		attendance.StatusAbsent:  "#FFC7CE",
		attendance.StatusLate:    "#FFEB9C",
	} {
		statusStyles[st] = w.style(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
	}
	if w.err != nil {
		return nil, errors.Wrap(w.err, "creating styles")
	}

	lastCol := colName(len(dates) + 4)
	w.colWidth("A", "A", 28)
	if len(dates) > 0 {
		w.colWidth(colName(2), colName(len(dates)+1), 12)
	}
	w.colWidth(colName(len(dates)+2), lastCol, 10)

	// title
	title := fmt.Sprintf("%s (%s) attendance, %s to %s", s.Course.Name, s.Course.Code, core.FormatDate(s.From), core.FormatDate(s.To))
	w.value("A1", title)
	w.merge("A1", cell(lastCol, 1))
	w.styleRange("A1", "A1", titleStyle)

	// header
	headers := append([]string{"Student"}, dates...)
	headers = append(headers, "Present", "Absent", "Late")
	for i, h := range headers {
		w.value(cell(colName(i+1), 2), h)
	}
	w.styleRange("A2", cell(lastCol, 2), headerStyle)

	// one row per student
	for i, r := range rows {
		row := i + 3
		w.value(cell("A", row), r.name)
		for j, d := range dates {
			st, ok := r.byDate[d]
			if !ok {
				continue
			}
			c := cell(colName(j+2), row)
			w.value(c, statusLetters[st])
			w.styleRange(c, c, statusStyles[st])
		}
		for j, n := range []int{r.stats.Present, r.stats.Absent, r.stats.Late} {
			w.value(cell(colName(len(dates)+2+j), row), n)
		}
	}
	if w.err != nil {
		return nil, errors.Wrap(w.err, "filling sheet")
	}

	buf := new(bytes.Buffer)
	if err = f.Write(buf); err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

// sheetWriter writes on the attendance sheet and keeps the first error; later calls are no-ops.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) style(st *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	var id int
	id, w.err = w.f.NewStyle(st)
	return id
}

func (w *sheetWriter) value(c string, v interface{}) {
	if w.err == nil {
		w.err = w.f.SetCellValue(sheetName, c, v)
	}
}

func (w *sheetWriter) styleRange(from, to string, style int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(sheetName, from, to, style)
	}
}

func (w *sheetWriter) merge(from, to string) {
	if w.err == nil {
		w.err = w.f.MergeCell(sheetName, from, to)
	}
}

func (w *sheetWriter) colWidth(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(sheetName, from, to, width)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
