package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var (
	NowFunc = time.Now // mockable

	errInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// Midnight returns the canonical (UTC midnight) instant of the calendar date `t` falls on, in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the canonical instant of the current calendar date.
func Today() time.Time {
	return Midnight(NowFunc())
}

// ParseDate parses a "YYYY-MM-DD" date to its canonical instant.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

// FormatDate formats the calendar date of `t` as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseClock parses a "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	if !isDigits(parts[0]) || !isDigits(parts[1]) {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
