// Package jobtest provides an in-memory job server speaking the control API,
// for tests of the client packages.
package jobtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/s22625/jobctl/internal/logging"
	"github.com/s22625/jobctl/internal/model"
)

// Headers the client identifies itself with.
const (
	headerRequestID = "X-Request-Id"
	headerClientID  = "X-Client-Id"
)

// Request records one request the server received.
type Request struct {
	Method    string
	Path      string
	Form      url.Values
	RawBody   string
	RequestID string
	ClientID  string
}

type resultResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is a fake job server. The zero state reports an idle, finished job.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	requests   []Request
	startError string
	snapshot   model.ProgressSnapshot
	failures   map[string]int
	delays     map[string]time.Duration
	running    bool
	paused     bool
}

// New starts a server that is closed when the test ends. Access lines go to
// the test log.
func New(t testing.TB) *Server {
	t.Helper()
	return newServer(t, zerolog.New(zerolog.NewTestWriter(t)))
}

func newServer(t testing.TB, logger zerolog.Logger) *Server {
	s := &Server{
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		snapshot: model.ProgressSnapshot{Finished: true},
	}
	s.Server = httptest.NewServer(s.routes(logger))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes(logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		msg := s.startError
		if msg == "" && s.running {
			msg = "Search already in progress."
		}
		if msg == "" {
			s.running = true
			s.paused = false
			s.snapshot.Finished = false
		}
		s.mu.Unlock()

		if msg != "" {
			render.JSON(w, r, errorResponse{Error: msg})
			return
		}
		render.JSON(w, r, resultResponse{Result: "Search started."})
	})
	r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.running = false
		s.paused = false
		s.mu.Unlock()
		render.JSON(w, r, resultResponse{Result: "Stopped"})
	})
	r.Post("/pause", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paused = true
		s.mu.Unlock()
		render.JSON(w, r, resultResponse{Result: "Paused"})
	})
	r.Post("/resume", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paused = false
		s.mu.Unlock()
		render.JSON(w, r, resultResponse{Result: "Resumed"})
	})
	r.Get("/progress", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		snap := s.snapshot
		s.mu.Unlock()
		render.JSON(w, r, snap)
	})
	r.Get("/clear_log", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.snapshot.Result = ""
		s.mu.Unlock()
		render.JSON(w, r, resultResponse{Result: "Logs cleared."})
	})

	chain := alice.New(
		hlog.NewHandler(logger),
		hlog.CustomHeaderHandler(logging.RequestIDField, headerRequestID),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("verb", r.Method).
				Str(logging.PathField, r.URL.Path).
				Int(logging.StatusField, status).
				Dur("duration", duration).
				Msg("REQ")
		}),
	)
	return chain.Then(r)
}

// record stores the request and applies configured failures and delays.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get(headerRequestID),
			ClientID:  r.Header.Get(headerClientID),
		}
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
			rec.RawBody = string(body)
			if form, err := url.ParseQuery(rec.RawBody); err == nil {
				rec.Form = form
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		status := s.failures[r.URL.Path]
		delay := s.delays[r.URL.Path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			w.WriteHeader(status)
			render.JSON(w, r, errorResponse{Error: http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetStartError makes the start endpoint reply with {"error": msg}. An empty
// msg restores normal behaviour.
func (s *Server) SetStartError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startError = msg
}

// SetSnapshot replaces the body served by /progress.
func (s *Server) SetSnapshot(snap model.ProgressSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Fail makes every request to path answer with status. Zero clears it.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Delay holds every request to path for d before answering.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Running reports whether a start was accepted and not stopped since.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Paused reports the server-side pause flag.
func (s *Server) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit path.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to path.
func (s *Server) Last(path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Request{}, false
}
