package model

import "time"

// Course is one entry of the shared allocation dataset. The nesting mirrors
// the exported JSON: course -> allocation -> class -> consult[].
type Course struct {
	Course     string     `json:"course"`
	Allocation Allocation `json:"allocation"`
}

type Allocation struct {
	Class Class `json:"class"`
}

type Class struct {
	Consult []Consultation `json:"consult"`
}

// Consultation is a recurring weekly help session definition.
type Consultation struct {
	// Instructors lists the zIDs allocated to this session.
	Instructors []string `json:"instructors"`
	// Weeks is the raw week specification, e.g. "1,3-5,9".
	Weeks string `json:"weeks"`
	// Day is a three-letter weekday abbreviation ("Mon" .. "Sun").
	Day string `json:"day"`
	// Start / End are "HH:MM" wall-clock times.
	Start string `json:"start"`
	End   string `json:"end"`
	Mode  string `json:"mode"`
	// Location is nil when the dataset omits it.
	Location *string `json:"location,omitempty"`
}

// Consultations returns the consultation list of a course.
func (c Course) Consultations() []Consultation {
	return c.Allocation.Class.Consult
}

// HasInstructor reports whether zid is one of the session's instructors.
func (c Consultation) HasInstructor(zid string) bool {
	for _, id := range c.Instructors {
		if id == zid {
			return true
		}
	}
	return false
}

// EventInstance represents a single concrete help session occurrence
// after week expansion.
type EventInstance struct {
	// UID is unique within one derivation run.
	UID string `json:"uid"`

	// Date is the calendar date of the occurrence (midnight, UTC).
	Date time.Time `json:"date"`

	// Start / End are floating local timestamps in iCalendar basic
	// format, e.g. "20240909T100000". They carry no timezone.
	Start string `json:"start"`
	End   string `json:"end"`

	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`

	// Week is the term week number this instance was expanded from.
	Week uint32 `json:"week"`
}
