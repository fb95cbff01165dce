package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidDay is returned by ProjectDate for unrecognized weekday names.
var ErrInvalidDay = errors.New("invalid day")

// weekdays maps the dataset's weekday abbreviations to rrule weekdays.
// rrule numbers weekdays from Monday (MO.Day() == 0), which is the offset
// from a Monday term start.
var weekdays = map[string]rrule.Weekday{
	"Mon": rrule.MO,
	"Tue": rrule.TU,
	"Wed": rrule.WE,
	"Thu": rrule.TH,
	"Fri": rrule.FR,
	"Sat": rrule.SA,
	"Sun": rrule.SU,
}

// ParseDay returns the rrule weekday for a three-letter abbreviation.
// Matching is case-sensitive.
func ParseDay(name string) (rrule.Weekday, error) {
	wd, ok := weekdays[name]
	if !ok {
		return rrule.Weekday{}, fmt.Errorf("%w: %s", ErrInvalidDay, name)
	}
	return wd, nil
}

// ProjectDate returns the date of the given weekday in the given term week.
// Week 1 is the week starting at termStart; week 0 lands one week before it.
func ProjectDate(termStart time.Time, week uint32, day string) (time.Time, error) {
	wd, err := ParseDay(day)
	if err != nil {
		return time.Time{}, err
	}
	days := (int(week)-1)*7 + wd.Day()
	return termStart.AddDate(0, 0, days), nil
}
