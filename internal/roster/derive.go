package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/ChrisWangg/help-session-to-ics/internal/model"
)

// DefaultLocation is used for consultations without a location.
const DefaultLocation = "Online"

// Result is the outcome of Derive.
type Result struct {
	Events []model.EventInstance
	// Matched is true when at least one consultation lists the zID, even if
	// none of its weeks produced an event.
	Matched bool
	// Warnings collects malformed week tokens and weekday names in the
	// order they were encountered.
	Warnings []string
}

// Derive expands every consultation that lists zid into one event per
// matched week. termStart is the Monday of term week 1.
//
// Malformed week tokens and unknown weekdays are recorded in Warnings and
// skipped; they never abort derivation of the rest of the roster.
func Derive(courses []model.Course, zid string, termStart time.Time) Result {
	var res Result

	for _, course := range courses {
		for _, c := range course.Consultations() {
			if !c.HasInstructor(zid) {
				continue
			}
			res.Matched = true

			ws := ParseWeeks(c.Weeks)
			res.Warnings = append(res.Warnings, ws.Warnings...)

			for _, week := range ws.Weeks {
				date, err := ProjectDate(termStart, week, c.Day)
				if err != nil {
					res.Warnings = append(res.Warnings, err.Error())
					continue
				}
				res.Events = append(res.Events, newEvent(course.Course, c, zid, week, date))
			}
		}
	}

	return res
}

func newEvent(course string, c model.Consultation, zid string, week uint32, date time.Time) model.EventInstance {
	location := DefaultLocation
	if c.Location != nil {
		location = *c.Location
	}

	return model.EventInstance{
		UID:         fmt.Sprintf("%s-%s-%s-%s-week%d", course, c.Day, c.Start, zid, week),
		Date:        date,
		Start:       localTimestamp(date, c.Start),
		End:         localTimestamp(date, c.End),
		Summary:     course + " Help Session",
		Description: fmt.Sprintf("Mode: %s, Weeks: %s", c.Mode, c.Weeks),
		Location:    location,
		Week:        week,
	}
}

// localTimestamp joins a date and an "HH:MM" clock into a floating
// iCalendar timestamp ("20060102T150400"). The clock text is not validated.
func localTimestamp(date time.Time, clock string) string {
	return date.Format("20060102") + "T" + strings.ReplaceAll(clock, ":", "") + "00"
}

// ParseTermStart parses a YYYY-MM-DD term start date.
func ParseTermStart(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse term start %q: %w", s, err)
	}
	return t, nil
}
