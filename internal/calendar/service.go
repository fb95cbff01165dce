package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/ChrisWangg/help-session-to-ics/internal/ics"
	appLog "github.com/ChrisWangg/help-session-to-ics/internal/log"
	"github.com/ChrisWangg/help-session-to-ics/internal/model"
	"github.com/ChrisWangg/help-session-to-ics/internal/roster"
)

// RosterSource supplies the course allocations.
type RosterSource interface {
	Load(ctx context.Context, source string) ([]model.Course, error)
}

// Service ties roster loading, derivation and ICS output together.
type Service struct {
	source      RosterSource
	allocations string
	termStart   time.Time
}

// NewService returns a Service reading allocations from the given path or
// URL and anchoring week 1 at termStart.
func NewService(src RosterSource, allocations string, termStart time.Time) *Service {
	return &Service{
		source:      src,
		allocations: allocations,
		termStart:   termStart,
	}
}

// Events loads the roster and derives zid's events. Derivation warnings
// are logged at WARN level and also returned in the result.
func (s *Service) Events(ctx context.Context, zid string) (roster.Result, error) {
	courses, err := s.source.Load(ctx, s.allocations)
	if err != nil {
		return roster.Result{}, err
	}

	res := roster.Derive(courses, zid, s.termStart)
	for _, w := range res.Warnings {
		appLog.Warn(w, "zid", zid)
	}

	appLog.Info("events derived",
		"zid", zid,
		"course_count", len(courses),
		"event_count", len(res.Events),
		"matched", res.Matched,
		"warning_count", len(res.Warnings),
	)
	return res, nil
}

// Generate derives zid's events and writes them to output. It reports
// whether any consultation matched; nothing is written when none did.
func (s *Service) Generate(ctx context.Context, zid, output string) (bool, error) {
	res, err := s.Events(ctx, zid)
	if err != nil {
		return false, err
	}
	if !res.Matched {
		return false, nil
	}
	if err := ics.WriteFile(output, res.Events); err != nil {
		return true, fmt.Errorf("write calendar: %w", err)
	}
	return true, nil
}
