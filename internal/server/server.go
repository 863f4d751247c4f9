// Package server exposes allocation sessions over HTTP so several clients
// can plan against the same set concurrently.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/theirongolddev/payplan/internal/session"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	MaxSessions  int
	EventsBuffer int
}

// Server owns the live sessions and the HTTP API over them.
type Server struct {
	cfg       Config
	log       *slog.Logger
	metrics   *metrics
	router    chi.Router
	startedAt time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// entry is one hosted session. mu serializes every action on it, so the
// session itself never sees concurrent calls.
type entry struct {
	id      string
	created time.Time

	mu          sync.Mutex
	sess        *session.Session
	version     int64
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event
	done        chan struct{}
}

// New returns a server with the provided config. A nil logger uses
// slog.Default.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.MaxSessions < 1 {
		cfg.MaxSessions = 64
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8640"
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		log:       logger,
		metrics:   newMetrics(),
		startedAt: time.Now(),
		sessions:  make(map[string]*entry),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())
	r.Get("/v1/status", s.handleStatus)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/groups", s.handleGroups)
			r.Get("/events", s.handleEvents)
			r.Get("/stream", s.handleStream)

			r.Put("/budget", s.act("set_budget", setBudget))
			r.Post("/locks/{rowID}", s.act("toggle_lock", toggleLock))
			r.Post("/select-all", s.act("select_all", selectAll))
			r.Post("/select-group", s.act("select_group", selectGroup))
			r.Post("/distribute", s.act("distribute", distribute))
			r.Post("/redistribute", s.act("redistribute", redistribute))
			r.Put("/cells/{rowID}", s.act("edit_cell", editCell))
			r.Put("/groups", s.act("edit_group", editGroup))
			r.Post("/reset", s.act("reset", reset))
		})
	})
	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("payplan server listening", "addr", s.cfg.Addr, "max_sessions", s.cfg.MaxSessions)

	select {
	case <-ctx.Done():
		s.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("payplan http server: %w", err)
	}
}

// Status is served at /v1/status.
type Status struct {
	StartedAt    time.Time `json:"started_at"`
	Sessions     int       `json:"sessions"`
	OverBudget   int       `json:"over_budget"`
	Subscribers  int       `json:"subscribers"`
	MaxSessions  int       `json:"max_sessions"`
	EventsBuffer int       `json:"events_buffer"`
}

func (s *Server) status() Status {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	st := Status{
		StartedAt:    s.startedAt,
		Sessions:     len(entries),
		MaxSessions:  s.cfg.MaxSessions,
		EventsBuffer: s.cfg.EventsBuffer,
	}
	for _, e := range entries {
		e.mu.Lock()
		if e.sess.OverAllocated() {
			st.OverBudget++
		}
		st.Subscribers += len(e.subs)
		e.mu.Unlock()
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

var errSessionLimit = errors.New("session limit reached")

func (s *Server) add(sess *session.Session) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return nil, errSessionLimit
	}
	e := &entry{
		id:      uuid.NewString(),
		created: time.Now(),
		sess:    sess,
		subs:    make(map[int]chan Event),
		done:    make(chan struct{}),
	}
	s.sessions[e.id] = e
	s.metrics.sessions.Set(float64(len(s.sessions)))
	return e, nil
}

func (s *Server) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func (s *Server) remove(id string) (*entry, bool) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		s.metrics.sessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	if e.sess.OverAllocated() {
		s.metrics.overBudget.Dec()
	}
	close(e.done)
	e.mu.Unlock()
	return e, true
}

// closed reports whether the entry was removed. Callers hold e.mu.
func (e *entry) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (s *Server) closeAll() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		s.remove(id)
	}
}

// logRequests logs each request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
