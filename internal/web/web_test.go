package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisWangg/help-session-to-ics/internal/config"
	"github.com/ChrisWangg/help-session-to-ics/internal/identity"
	"github.com/ChrisWangg/help-session-to-ics/internal/model"
	"github.com/ChrisWangg/help-session-to-ics/internal/roster"
)

type fakeSource struct {
	calls atomic.Int32
}

func (f *fakeSource) Events(_ context.Context, zid string) (roster.Result, error) {
	f.calls.Add(1)
	if zid != "z1111111" {
		return roster.Result{}, nil
	}
	return roster.Result{
		Matched: true,
		Events: []model.EventInstance{{
			UID:         "COMP101-Mon-10:00-z1111111-week1",
			Start:       "20240909T100000",
			End:         "20240909T110000",
			Summary:     "COMP101 Help Session",
			Description: "Mode: Online, Weeks: 1",
			Location:    "Online",
			Week:        1,
		}},
	}, nil
}

var testDirectory = identity.Directory{
	"z1111111": "Ada Lovelace",
	"z2222222": "Alan Turing",
}

func newTestServer(cfg *config.Config) (*Server, *fakeSource) {
	src := &fakeSource{}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewServer(cfg, src, testDirectory), src
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEvents_JSON(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := get(t, s.Handler(), "/api/events?zid=z1111111")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ada Lovelace", resp.Name)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "COMP101 Help Session", resp.Events[0].Summary)
}

func TestEvents_Errors(t *testing.T) {
	s, _ := newTestServer(nil)
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/events").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/events?zid=z0000000").Code)

	rec := get(t, h, "/api/events?zid=z2222222")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No allocations found for zID: z2222222")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events?zid=z1111111", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCalendar_ICS(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := get(t, s.Handler(), "/calendar.ics?zid=z1111111")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "DTSTART:20240909T100000")
}

func TestDerive_Cached(t *testing.T) {
	s, src := newTestServer(nil)
	now := time.Date(2024, time.September, 9, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	h := s.Handler()

	get(t, h, "/calendar.ics?zid=z1111111")
	get(t, h, "/api/events?zid=z1111111")
	assert.Equal(t, int32(1), src.calls.Load())

	now = now.Add(eventsCacheTTL)
	get(t, h, "/calendar.ics?zid=z1111111")
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "tutor", Password: "secret"}
	s, _ := newTestServer(cfg)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/calendar.ics?zid=z1111111").Code)

	req := httptest.NewRequest(http.MethodGet, "/calendar.ics?zid=z1111111", nil)
	req.SetBasicAuth("tutor", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
