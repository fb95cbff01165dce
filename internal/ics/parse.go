package ics

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/ChrisWangg/help-session-to-ics/internal/log"
)

// ParsedEvent is a VEVENT read back from a generated calendar.
type ParsedEvent struct {
	UID         string
	Start       string
	End         string
	Summary     string
	Description string
	Location    string
}

// Parse reads the VEVENTs of an ICS payload. Raw DTSTART/DTEND values are
// kept as text since generated files use floating times.
func Parse(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// ParseFile reads and parses the calendar at path.
func ParseFile(path string) ([]ParsedEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		out.Start = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		out.End = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	return out, nil
}
