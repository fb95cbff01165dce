package ics

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/ChrisWangg/help-session-to-ics/internal/log"
	"github.com/ChrisWangg/help-session-to-ics/internal/model"
)

// ProductID is written as PRODID on every generated calendar.
const ProductID = "-//help-session-to-ics//helpcal//EN"

// BuildCalendar converts event instances into a VCALENDAR with one VEVENT
// per instance. Timestamps are written as floating local times (no TZID, no
// trailing Z). DTSTAMP reuses the start timestamp so the output depends only
// on the inputs.
func BuildCalendar(events []model.EventInstance) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetVersion("2.0")

	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetProperty(ical.ComponentPropertyDtstamp, ev.Start)
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start)
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End)
		ve.SetSummary(ev.Summary)
		ve.SetDescription(ev.Description)
		ve.SetLocation(ev.Location)
	}

	return cal
}

// Encode writes the serialized calendar for events to w.
func Encode(w io.Writer, events []model.EventInstance) error {
	_, err := io.WriteString(w, BuildCalendar(events).Serialize())
	return err
}

// WriteFile serializes events to path atomically via a temp file + rename.
// Parent directories are created when missing.
func WriteFile(path string, events []model.EventInstance) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".helpcal-*.ics.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, events); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	appLog.Debug("calendar written", "path", path, "event_count", len(events))
	return nil
}
