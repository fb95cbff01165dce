package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/ChrisWangg/help-session-to-ics/internal/config"
	"github.com/ChrisWangg/help-session-to-ics/internal/ics"
	"github.com/ChrisWangg/help-session-to-ics/internal/identity"
	appLog "github.com/ChrisWangg/help-session-to-ics/internal/log"
	"github.com/ChrisWangg/help-session-to-ics/internal/model"
	"github.com/ChrisWangg/help-session-to-ics/internal/roster"
)

const eventsCacheTTL = 30 * time.Second

// EventSource derives the events for a zID.
type EventSource interface {
	Events(ctx context.Context, zid string) (roster.Result, error)
}

// Server exposes derived help sessions over HTTP so calendar clients can
// subscribe to /calendar.ics?zid=... directly.
type Server struct {
	cfg       *config.Config
	events    EventSource
	directory identity.Directory
	mux       *http.ServeMux

	// Per-zID cache of derivation results to avoid reloading the roster
	// on every calendar client poll.
	cacheMu sync.RWMutex
	cache   map[string]cachedResult
	now     func() time.Time
}

type cachedResult struct {
	res       roster.Result
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, events EventSource, dir identity.Directory) *Server {
	s := &Server{
		cfg:       cfg,
		events:    events,
		directory: dir,
		mux:       http.NewServeMux(),
		cache:     make(map[string]cachedResult),
		now:       time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="helpcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	ZID      string                `json:"zid"`
	Name     string                `json:"name"`
	Events   []model.EventInstance `json:"events"`
	Warnings []string              `json:"warnings,omitempty"`
}

// handleEvents returns the derived events for a tutor as JSON.
//
// GET /api/events?zid=z1234567
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	zid, name, ok := s.resolveZID(w, r)
	if !ok {
		return
	}

	res, ok := s.derive(w, r, zid)
	if !ok {
		return
	}

	events := res.Events
	if events == nil {
		events = []model.EventInstance{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		ZID:      zid,
		Name:     name,
		Events:   events,
		Warnings: res.Warnings,
	})
}

// handleCalendar returns the derived events for a tutor as text/calendar.
//
// GET /calendar.ics?zid=z1234567
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	zid, _, ok := s.resolveZID(w, r)
	if !ok {
		return
	}

	res, ok := s.derive(w, r, zid)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="my_allocations.ics"`)
	w.WriteHeader(http.StatusOK)
	if err := ics.Encode(w, res.Events); err != nil {
		appLog.Error("failed to write calendar response", err, "zid", zid)
	}
}

// resolveZID validates the zid query parameter against the tutor directory.
func (s *Server) resolveZID(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", "", false
	}

	zid := r.URL.Query().Get("zid")
	if zid == "" {
		writeError(w, http.StatusBadRequest, "missing zid")
		return "", "", false
	}

	name, err := s.directory.Lookup(zid)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", "", false
	}
	return zid, name, true
}

// derive returns zid's result from cache or the event source. A zID
// without allocations is answered with 404.
func (s *Server) derive(w http.ResponseWriter, r *http.Request, zid string) (roster.Result, bool) {
	now := s.now()

	s.cacheMu.RLock()
	c, hit := s.cache[zid]
	s.cacheMu.RUnlock()

	res := c.res
	if !hit || now.Sub(c.updatedAt) >= eventsCacheTTL {
		var err error
		res, err = s.events.Events(r.Context(), zid)
		if err != nil {
			appLog.Error("api: derive failed", err, "zid", zid)
			writeError(w, http.StatusInternalServerError, "failed to derive events")
			return roster.Result{}, false
		}

		s.cacheMu.Lock()
		s.cache[zid] = cachedResult{res: res, updatedAt: now}
		s.cacheMu.Unlock()
	}

	if !res.Matched {
		writeError(w, http.StatusNotFound, "No allocations found for zID: "+zid)
		return roster.Result{}, false
	}
	return res, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
